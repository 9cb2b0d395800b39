package models

// UserProfile is the registered technician behind a Telegram chat.
// It is created once by the registration flow and never changed by other flows.
type UserProfile struct {
	ChatID           int64  `db:"chat_id" json:"chatID"`                     // Telegram chat ID, unique key
	Name             string `db:"name" json:"name"`                          // Full name
	Role             string `db:"role" json:"role"`                          // Role (Mecânico, Eletricista, ...)
	Level            string `db:"level" json:"level"`                        // Seniority level
	Department       string `db:"department" json:"department"`              // Work department
	RegistrationCode string `db:"registration_code" json:"registrationCode"` // Company registration code, globally unique
}
