package backup

import (
	"encoding/json"
	"time"
)

const Version = "2.0.0"

// exportDocument is the JSON file a user downloads. Amounts are JSON numbers.
type exportDocument struct {
	Version        string              `json:"version"`
	ExportDate     time.Time           `json:"exportDate"`
	InitialBalance json.Number         `json:"initialBalance"`
	Transactions   []transactionRecord `json:"transactions"`
	Categories     []categoryRecord    `json:"categories"`
	Recurrences    []recurrenceRecord  `json:"recurrences"`
}

// importDocument keeps transactions raw so a missing or malformed list can be
// told apart from an empty one.
type importDocument struct {
	Version        string             `json:"version"`
	InitialBalance *json.Number       `json:"initialBalance"`
	Transactions   json.RawMessage    `json:"transactions"`
	Categories     []categoryRecord   `json:"categories"`
	Recurrences    []recurrenceRecord `json:"recurrences"`
}

type transactionRecord struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	IsRecurring bool        `json:"isRecurring"`
	// RecurrenceID is written by 2.x exports only.
	RecurrenceID string `json:"recurrenceId,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	// Budget names the originating budget in a principal export.
	Budget string `json:"budget,omitempty"`
}

type categoryRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

type recurrenceRecord struct {
	ID                string      `json:"id"`
	Type              string      `json:"type"`
	Amount            json.Number `json:"amount"`
	Category          string      `json:"category"`
	Description       string      `json:"description"`
	Frequency         string      `json:"frequency"`
	CustomMonths      int         `json:"customMonths,omitempty"`
	StartDate         string      `json:"startDate"`
	EndDate           string      `json:"endDate,omitempty"`
	IsActive          *bool       `json:"isActive"`
	NextDueDate       string      `json:"nextDueDate,omitempty"`
	LastGeneratedDate string      `json:"lastGeneratedDate,omitempty"`
	TotalGenerated    int         `json:"totalGenerated"`
	CreatedAt         string      `json:"createdAt,omitempty"`
}
