package models

type Role string

const (
	Admin   Role = "admin"
	Teacher Role = "teacher"
)

// User is the authentication identity. Credentials and role live here only;
// a teacher profile is linked by username.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Role         Role   `db:"role"`
}

type TeacherProfile struct {
	ID        int64   `db:"id"`
	Name      string  `db:"name"`
	Surname   string  `db:"surname"`
	Username  string  `db:"username"`
	AvatarURL *string `db:"avatar_url"`
}
