// Package report aggregates roster data for the front end and exports it as
// spreadsheets.
package report

// GeneralStats is the headline report.
type GeneralStats struct {
	TotalMembers     int `json:"total_fraternos"`
	ActiveMembers    int `json:"fraternos_activos"`
	InactiveMembers  int `json:"fraternos_inactivos"`
	SuspendedMembers int `json:"fraternos_suspendidos"`
	TotalBlocks      int `json:"total_bloques"`
	TotalEvents      int `json:"total_eventos"`
	EnrolledMembers  int `json:"fraternos_con_huella"`
}

type GenderCount struct {
	Gender string `json:"genero"`
	Count  int    `json:"cantidad"`
}

// SizeCount is one clothing size bucket. Kind is the garment (polera,
// pantalon, zapato).
type SizeCount struct {
	Kind  string `json:"tipo"`
	Size  string `json:"talla"`
	Count int    `json:"cantidad"`
}

// MemberRow is the flat listing used by exports and the missing-fingerprint
// report.
type MemberRow struct {
	ID     int64  `json:"id"`
	CI     string `json:"ci"`
	Name   string `json:"nombre"`
	Phone  string `json:"celular,omitempty"`
	Block  string `json:"bloque,omitempty"`
	Status string `json:"estado"`
}
