package tutor

import (
	"context"
	"fmt"
	"time"

	"github.com/tutorlab/socratic-tutor/domain"
)

// Demo user record, created idempotently by GET /init-demo.
const (
	DemoUserID    = "alex-chen-demo"
	demoUserName  = "Alex Chen"
	demoUserEmail = "alex.chen@demo.com"
)

// EnsureDemoUser creates the fixed demo user if it does not exist yet. It
// reports whether this call created the user.
func (s *Service) EnsureDemoUser(ctx context.Context) (bool, error) {
	existing, err := s.store.GetUser(ctx, DemoUserID)
	if err != nil {
		return false, fmt.Errorf("lookup demo user: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	user := &domain.User{
		UserID:    DemoUserID,
		Name:      demoUserName,
		Email:     demoUserEmail,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return false, fmt.Errorf("create demo user: %w", err)
	}
	return true, nil
}
