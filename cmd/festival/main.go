// Command festival runs the festival scheduling API and its maintenance tasks.
package main

// @title Festival Scheduling API
// @version 1.0
// @description Timetables, schedule imports and bookings for dance and music festivals.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	Execute()
}
