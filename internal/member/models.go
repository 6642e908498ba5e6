// Package member manages the fraternity roster: the fraternos table, its
// block assignment, and the profile data the front end edits.
package member

import "time"

// Status of a member. The legacy values are kept verbatim.
const (
	StatusActive    = "Activo"
	StatusInactive  = "Inactivo"
	StatusSuspended = "Suspendido"
)

// Gender values carried over from the legacy schema.
const (
	GenderMale   = "Masculino"
	GenderFemale = "Femenino"
)

// Member is a fraterno row. HasTemplate is derived from huella_template; the
// template itself never travels through this package.
type Member struct {
	ID          int64      `json:"id"`
	CI          string     `json:"ci"`
	Name        string     `json:"nombre"`
	BirthDate   *time.Time `json:"fechanacimiento,omitempty"`
	Phone       string     `json:"celular,omitempty"`
	Gender      string     `json:"genero,omitempty"`
	BlockID     *int64     `json:"bloque_id,omitempty"`
	BlockName   string     `json:"bloque_nombre,omitempty"`
	PhotoPath   string     `json:"foto,omitempty"`
	ShirtSize   string     `json:"talla_polera,omitempty"`
	PantsSize   string     `json:"talla_pantalon,omitempty"`
	ShoeSize    string     `json:"talla_zapato,omitempty"`
	AmountPaid  float64    `json:"monto_pagado"`
	Status      string     `json:"estado"`
	HasTemplate bool       `json:"huella_registrada"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	BlockID *int64
	Status  string
	Search  string
}

func validStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

func validGender(g string) bool {
	return g == "" || g == GenderMale || g == GenderFemale
}
