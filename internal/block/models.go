// Package block manages the organizational blocks (bloques) members belong to.
package block

import "time"

// Block types carried over from the legacy schema.
const (
	TypeTroop       = "Tropa"
	TypeIndependent = "Independientes"
	TypeSpecial     = "Especial"
)

type Block struct {
	ID              int64     `json:"id"`
	Name            string    `json:"nombre_bloque"`
	Type            string    `json:"tipobloque"`
	Status          string    `json:"estado"`
	ResponsibleID   *int64    `json:"fraterno_id,omitempty"`
	ResponsibleName string    `json:"responsable,omitempty"`
	MemberCount     int       `json:"cantidad_fraternos"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BlockMember is the roster entry returned with a block detail.
type BlockMember struct {
	ID     int64  `json:"id"`
	CI     string `json:"ci"`
	Name   string `json:"nombre"`
	Status string `json:"estado"`
}

func validType(t string) bool {
	switch t {
	case TypeTroop, TypeIndependent, TypeSpecial:
		return true
	}
	return false
}
