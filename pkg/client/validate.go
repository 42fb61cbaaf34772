package client

import (
	"regexp"
	"strings"
)

// MinPasswordLen is the shortest password accepted at signup and login.
const MinPasswordLen = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidateSignup checks a signup form before it is sent. It returns a
// *ValidationError listing every failing field, or nil.
func ValidateSignup(req SignupRequest) error {
	fields := make(map[string]string)

	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "Username is required."
	}
	if msg := checkEmail(req.Email); msg != "" {
		fields["email"] = msg
	}
	if msg := checkPassword(req.Password); msg != "" {
		fields["password"] = msg
	}
	if !req.AcceptTerms {
		fields["terms"] = "You must accept the Terms and Privacy Policy."
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateLogin checks login input. identifier may be a username or an
// email; it is only held to the email shape when it contains an "@".
func ValidateLogin(identifier, password string) error {
	fields := make(map[string]string)

	id := strings.TrimSpace(identifier)
	switch {
	case id == "":
		fields["email"] = "Username or email is required."
	case strings.Contains(id, "@") && !emailPattern.MatchString(id):
		fields["email"] = "Invalid email format."
	}
	if msg := checkPassword(password); msg != "" {
		fields["password"] = msg
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if !emailPattern.MatchString(email) {
		return "Invalid email format."
	}
	return ""
}

func checkPassword(password string) string {
	if strings.TrimSpace(password) == "" {
		return "Password is required."
	}
	if len([]rune(password)) < MinPasswordLen {
		return "Password must be at least 6 characters."
	}
	return ""
}
