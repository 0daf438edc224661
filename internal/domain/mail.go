package domain

const (
	MailTypeCreateUser  = "create_user"
	MailTypeGridSummary = "grid_summary"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type GridSummarySlot struct {
	Key   string `json:"key"`
	Hour  int    `json:"hour"`
	Count int    `json:"count"`
}

type GridSummaryMailData struct {
	ParticipantName   string            `json:"participantName"`
	SessionName       string            `json:"sessionName"`
	ObserverTimezone  string            `json:"observerTimezone"`
	TotalParticipants int               `json:"totalParticipants"`
	FullCoverage      []GridSummarySlot `json:"fullCoverage"`
	Suggestions       []GridSummarySlot `json:"suggestions"`
}
