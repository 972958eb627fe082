// Package members serves member profiles and their photos.
package members

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("member not found")

type Photo struct {
	ID       string
	URL      string
	PublicID string
	IsMain   bool
}

type Member struct {
	ID           string
	Username     string
	KnownAs      string
	Gender       string
	DateOfBirth  time.Time
	Created      time.Time
	LastActive   time.Time
	Introduction string
	Interests    string
	LookingFor   string
	City         string
	Country      string
	Photos       []Photo
}

// ProfileUpdate carries the fields a member may change on their own profile.
type ProfileUpdate struct {
	Introduction string `json:"introduction"`
	Interests    string `json:"interests"`
	LookingFor   string `json:"lookingFor"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

type NewPhoto struct {
	URL      string
	PublicID string
}

type PhotoDTO struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

type MemberDTO struct {
	ID           string     `json:"id"`
	Username     string     `json:"userName"`
	Age          int        `json:"age"`
	PhotoURL     string     `json:"photoUrl,omitempty"`
	KnownAs      string     `json:"knownAs"`
	Created      time.Time  `json:"created"`
	LastActive   time.Time  `json:"lastActive"`
	Gender       string     `json:"gender"`
	Introduction string     `json:"introduction"`
	Interests    string     `json:"interests"`
	LookingFor   string     `json:"lookingFor"`
	City         string     `json:"city"`
	Country      string     `json:"country"`
	Photos       []PhotoDTO `json:"photos"`
}

// CalculateAge returns the number of whole years between dob and today.
func CalculateAge(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

func NewPhotoDTO(p Photo) PhotoDTO {
	return PhotoDTO{ID: p.ID, URL: p.URL, IsMain: p.IsMain}
}

func NewMemberDTO(m Member, today time.Time) MemberDTO {
	dto := MemberDTO{
		ID:           m.ID,
		Username:     m.Username,
		Age:          CalculateAge(m.DateOfBirth, today),
		KnownAs:      m.KnownAs,
		Created:      m.Created,
		LastActive:   m.LastActive,
		Gender:       m.Gender,
		Introduction: m.Introduction,
		Interests:    m.Interests,
		LookingFor:   m.LookingFor,
		City:         m.City,
		Country:      m.Country,
		Photos:       make([]PhotoDTO, 0, len(m.Photos)),
	}
	for _, p := range m.Photos {
		if p.IsMain && dto.PhotoURL == "" {
			dto.PhotoURL = p.URL
		}
		dto.Photos = append(dto.Photos, NewPhotoDTO(p))
	}
	return dto
}
