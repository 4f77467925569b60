package models

import "time"

type Teacher struct {
	ID         string
	Name       string
	Email      string
	Department string
	CreatedAt  time.Time
}
