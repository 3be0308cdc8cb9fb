package transport

type SignUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type AuthLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	TTL      int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}

type CreateTaskRequest struct {
	Domain      string `json:"domain"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
	Reviewer    string `json:"reviewer"`
}

type SubmitWorkRequest struct {
	FilePath string `json:"submitted_file_path"`
}

type ReviewRequest struct {
	Decision string `json:"decision"`
	Feedback string `json:"feedback"`
}
