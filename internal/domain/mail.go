package domain

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

type RunFinishedMailData struct {
	FullName    string  `json:"fullName"`
	RunID       int64   `json:"runId"`
	Problem     string  `json:"problem"`
	Status      string  `json:"status"`
	BestFitness float64 `json:"bestFitness"`
	Generations int     `json:"generations"`
	Duration    string  `json:"duration"`
}
