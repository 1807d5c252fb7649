package models

import "time"

// RoomType is the room category captured in the room form.
type RoomType string

const (
	RoomQuarto      RoomType = "quarto"
	RoomSuite       RoomType = "suite"
	RoomSala        RoomType = "sala"
	RoomCozinha     RoomType = "cozinha"
	RoomBanheiro    RoomType = "banheiro"
	RoomLavabo      RoomType = "lavabo"
	RoomVaranda     RoomType = "varanda"
	RoomGaragem     RoomType = "garagem"
	RoomAreaServico RoomType = "area-servico"
	RoomEscritorio  RoomType = "escritorio"
	RoomDespensa    RoomType = "despensa"
	RoomOutro       RoomType = "outro"
)

var roomTypeLabels = map[RoomType]string{
	RoomQuarto:      "Quarto",
	RoomSuite:       "Suíte",
	RoomSala:        "Sala",
	RoomCozinha:     "Cozinha",
	RoomBanheiro:    "Banheiro",
	RoomLavabo:      "Lavabo",
	RoomVaranda:     "Varanda",
	RoomGaragem:     "Garagem",
	RoomAreaServico: "Área de Serviço",
	RoomEscritorio:  "Escritório",
	RoomDespensa:    "Despensa",
	RoomOutro:       "Outro",
}

// Label returns the display label for the room type.
func (t RoomType) Label() string {
	if label, ok := roomTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Condition is the ordered room condition scale,
// excelente > bom > regular > ruim > pessimo.
type Condition string

const (
	ConditionExcelente Condition = "excelente"
	ConditionBom       Condition = "bom"
	ConditionRegular   Condition = "regular"
	ConditionRuim      Condition = "ruim"
	ConditionPessimo   Condition = "pessimo"
)

var conditionRanks = map[Condition]int{
	ConditionExcelente: 5,
	ConditionBom:       4,
	ConditionRegular:   3,
	ConditionRuim:      2,
	ConditionPessimo:   1,
}

var conditionLabels = map[Condition]string{
	ConditionExcelente: "Excelente",
	ConditionBom:       "Bom",
	ConditionRegular:   "Regular",
	ConditionRuim:      "Ruim",
	ConditionPessimo:   "Péssimo",
}

// Rank returns the ordering value of the condition; higher is better.
// Unknown conditions rank 0.
func (c Condition) Rank() int {
	return conditionRanks[c]
}

// Label returns the display label for the condition.
func (c Condition) Label() string {
	if label, ok := conditionLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether the condition is one of the known scale values.
func (c Condition) Valid() bool {
	_, ok := conditionRanks[c]
	return ok
}

// Room is one documented room. A room belongs to exactly one
// inspection; rooms are never shared across drafts.
type Room struct {
	ID          string      `json:"id"`
	Type        RoomType    `json:"type"`
	Name        string      `json:"name,omitempty"`
	Condition   Condition   `json:"condition"`
	Description string      `json:"description,omitempty"`
	Photos      []Photo     `json:"photos"`
	Audios      []AudioClip `json:"audios"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// DisplayName returns the custom name when set, otherwise the room
// type label.
func (r *Room) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Type.Label()
}

// Photo is a captured room photo. Payload holds the locally cached
// encoded image until the upload service returns a URL; once URL is
// set the payload is stripped by store maintenance.
type Photo struct {
	ID        string    `json:"id"`
	URL       string    `json:"url,omitempty"`
	PublicID  string    `json:"publicId,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	TakenAt   time.Time `json:"takenAt"`
}

// AudioClip is a recorded room note, same payload/URL lifecycle as Photo.
type AudioClip struct {
	ID         string    `json:"id"`
	URL        string    `json:"url,omitempty"`
	PublicID   string    `json:"publicId,omitempty"`
	Payload    string    `json:"payload,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}
