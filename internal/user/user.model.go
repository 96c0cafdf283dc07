package user

import (
	"time"

	"arogyamandiramAPI/internal/achievement"
)

type User struct {
	ID            string                    `json:"id"`
	ClerkID       string                    `json:"clerkId"`
	Email         string                    `json:"email"`
	Username      string                    `json:"username"`
	FirstName     string                    `json:"firstName"`
	LastName      string                    `json:"lastName"`
	ImageURL      string                    `json:"imageUrl,omitempty"`
	EmailVerified bool                      `json:"emailVerified"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
	Targets       *Targets                  `json:"targets,omitempty"`
	Achievements  *achievement.Achievements `json:"achievements,omitempty"`
}
