package dto

// StudentLoginRequest captures POST /login/student credentials.
type StudentLoginRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// AdminLoginRequest captures POST /login/admin credentials.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by both login operations. ID is only populated
// for student logins.
type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
}

// SubmitComplaintRequest captures POST /student/complaints. The submission
// contract uses the client-side camelCase convention.
type SubmitComplaintRequest struct {
	Heading     string `json:"heading" validate:"required"`
	Description string `json:"description" validate:"required"`
	IsAnonymous bool   `json:"isAnonymous"`
	IsPublic    bool   `json:"isPublic"`
	StudentID   string `json:"studentId" validate:"required"`
}

// StatusUpdateRequest captures PUT /admin/complaints/{id}.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}
