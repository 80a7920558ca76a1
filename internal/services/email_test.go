package services

import (
	"context"
	"errors"
	"testing"

	"festivalscheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, html, text string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, html, text})
	return nil
}

type fakeRenderer struct {
	rendered []string
	err      error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	f.rendered = append(f.rendered, name)
	return "subject:" + name, "<p>" + name + "</p>", name, nil
}

func TestEmailService_SendLoginCode(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer, nil)

	require.NoError(t, svc.SendLoginCode(ctx, &domain.LoginCodeEmailData{Email: "a@example.com", Code: "123456"}))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@example.com", mailer.sent[0].to)
	assert.Equal(t, "subject:login_code", mailer.sent[0].subject)

	assert.Error(t, svc.SendLoginCode(ctx, nil))
}

func TestEmailService_SendBookingConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mailer := &fakeMailer{}
		renderer := &fakeRenderer{}
		svc := NewEmailService(mailer, renderer, nil)
		err := svc.SendBookingConfirmation(ctx, &domain.BookingConfirmationEmailData{Email: "b@example.com", SessionTitle: "Salsa"})
		require.NoError(t, err)
		assert.Equal(t, []string{"booking_confirmation"}, renderer.rendered)
		assert.Equal(t, "b@example.com", mailer.sent[0].to)
	})

	t.Run("render failure", func(t *testing.T) {
		svc := NewEmailService(&fakeMailer{}, &fakeRenderer{err: errors.New("missing template")}, nil)
		err := svc.SendBookingConfirmation(ctx, &domain.BookingConfirmationEmailData{Email: "b@example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "render booking_confirmation template")
	})

	t.Run("send failure", func(t *testing.T) {
		svc := NewEmailService(&fakeMailer{err: errors.New("throttled")}, &fakeRenderer{}, nil)
		err := svc.SendBookingConfirmation(ctx, &domain.BookingConfirmationEmailData{Email: "b@example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "send booking_confirmation email")
	})
}
