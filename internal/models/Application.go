package models

import "time"

type Application struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Flair     string    `json:"flair"`
	Subject   string    `json:"sub"`
	CreatedAt time.Time `json:"createdAt"`
}
