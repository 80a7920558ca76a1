package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"festivalscheduling/internal/domain"

	"github.com/google/uuid"
)

// festivalOwner resolves the owner a maintenance task acts as.
func festivalOwner(ctx context.Context, festivals domain.FestivalRepository, festivalID string) (string, error) {
	if _, err := uuid.Parse(festivalID); err != nil {
		return "", fmt.Errorf("--festival must be a festival UUID: %w", err)
	}
	festival, err := festivals.GetByID(ctx, festivalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("festival %s not found", festivalID)
		}
		return "", fmt.Errorf("get festival: %w", err)
	}
	return festival.OwnerID, nil
}

func normalizeFestival(ctx context.Context, out io.Writer, festivals domain.FestivalRepository, schedule domain.ScheduleService, festivalID string) error {
	ownerID, err := festivalOwner(ctx, festivals, festivalID)
	if err != nil {
		return err
	}
	changes, err := schedule.NormalizeDisplayOrders(ctx, festivalID, ownerID)
	if err != nil {
		return err
	}
	for _, c := range changes {
		prev := "none"
		if c.Previous != nil {
			prev = fmt.Sprintf("%g", *c.Previous)
		}
		fmt.Fprintf(out, "%s: %s -> %g\n", c.SessionID, prev, c.Next)
	}
	fmt.Fprintf(out, "%d display orders changed\n", len(changes))
	return nil
}

func importFestival(ctx context.Context, out io.Writer, festivals domain.FestivalRepository, schedule domain.ScheduleService, festivalID string, body io.Reader, apply bool) error {
	ownerID, err := festivalOwner(ctx, festivals, festivalID)
	if err != nil {
		return err
	}
	src := domain.ImportSource{Body: body}
	var report *domain.ImportReport
	if apply {
		report, err = schedule.ApplyImport(ctx, festivalID, ownerID, src)
	} else {
		report, err = schedule.PreviewImport(ctx, festivalID, ownerID, src)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
