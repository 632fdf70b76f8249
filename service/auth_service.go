package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"regexp"
	"strings"
	"time"

	model "github.com/caseboard/caseboard/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// magicLinkTTL is how long an issued login link stays valid.
const magicLinkTTL = 15 * time.Minute

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// AuthService implements registration and passwordless magic-link login.
// New users start unapproved; an admin has to flip is_approved before a
// login link grants a session.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// RegisterUser creates an unapproved user and notifies the admins.
func (s *AuthService) RegisterUser(name, email, reason string) error {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		log.Printf("[RegisterUser] Error checking duplicate email: %v", err)
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("email is already registered")
	}

	user := model.User{
		Name:           name,
		Email:          email,
		ApprovalReason: strings.TrimSpace(reason),
		IsAdmin:        false,
		IsApproved:     false,
		CreatedAt:      time.Now(),
	}
	if err := s.db.Create(&user).Error; err != nil {
		log.Printf("[RegisterUser] Error creating user %s: %v", email, err)
		return fmt.Errorf("failed to register user: %w", err)
	}
	log.Printf("[RegisterUser] Registered %s (pending approval)", email)

	s.notifyAdmins(user)
	return nil
}

// notifyAdmins mails every admin about a pending registration. Best-effort.
func (s *AuthService) notifyAdmins(user model.User) {
	var admins []model.User
	if err := s.db.Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		log.Printf("[notifyAdmins] Error fetching admins: %v", err)
		return
	}
	if len(admins) == 0 {
		return
	}

	subject := fmt.Sprintf("New registration pending approval: %s", user.Email)
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>New Registration</h2>
		<p>A new user is waiting for approval:</p>
		<ul>
			<li><strong>Name:</strong> %s</li>
			<li><strong>Email:</strong> %s</li>
			<li><strong>Reason:</strong> %s</li>
		</ul>
	</body>
	</html>
`, user.Name, user.Email, user.ApprovalReason)

	for _, admin := range admins {
		if err := sendMail(admin.Email, subject, body); err != nil {
			log.Printf("[notifyAdmins] Error mailing %s: %v", admin.Email, err)
		}
	}
}

// RequestMagicLink issues a single-use login token for a known user and
// mails the login URL. The token is returned for logging/testing; callers
// facing the network must not expose it.
func (s *AuthService) RequestMagicLink(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("invalid email address")
	}

	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		log.Printf("[RequestMagicLink] Unknown email %s: %v", email, err)
		return "", fmt.Errorf("no account found for this email")
	}

	link := model.LoginMagicLink{
		Token:     uuid.NewString(),
		Email:     user.Email,
		Expiry:    time.Now().Add(magicLinkTTL),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&link).Error; err != nil {
		log.Printf("[RequestMagicLink] Error storing token for %s: %v", email, err)
		return "", fmt.Errorf("failed to create login link: %w", err)
	}

	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	loginURL := fmt.Sprintf("%s/auth/callback?token=%s", baseURL, link.Token)

	if os.Getenv("SMTP_HOST") == "" {
		// Dev fallback: no mailer configured.
		log.Printf("[RequestMagicLink] SMTP not configured, login link for %s: %s", email, loginURL)
		return link.Token, nil
	}

	subject := "Your CaseBoard login link"
	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Login to CaseBoard</h2>
		<p>Click the link below to log in. It expires in 15 minutes and can be used once.</p>
		<p><a href="%s">%s</a></p>
	</body>
	</html>
`, loginURL, loginURL)
	if err := sendMail(user.Email, subject, body); err != nil {
		log.Printf("[RequestMagicLink] Error sending mail to %s: %v", email, err)
		return "", fmt.Errorf("failed to send login email: %w", err)
	}

	log.Printf("[RequestMagicLink] Login link sent to %s", email)
	return link.Token, nil
}

// RedeemMagicLink validates and invalidates a token, returning the user it
// belongs to. Only approved users get through.
func (s *AuthService) RedeemMagicLink(token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	now := time.Now()
	var link model.LoginMagicLink
	if err := s.db.Where("token = ? AND expiry > ?", token, now).First(&link).Error; err != nil {
		log.Printf("[RedeemMagicLink] Token validation failed: %v", err)
		return nil, fmt.Errorf("invalid or expired magic link")
	}

	// Single use: expire the token at redemption time.
	if err := s.db.Model(&model.LoginMagicLink{}).Where("token = ?", token).Update("expiry", now).Error; err != nil {
		log.Printf("[RedeemMagicLink] Error invalidating token: %v", err)
		return nil, fmt.Errorf("failed to invalidate magic link: %w", err)
	}

	var user model.User
	if err := s.db.Where("email = ?", link.Email).First(&user).Error; err != nil {
		log.Printf("[RedeemMagicLink] No user for %s: %v", link.Email, err)
		return nil, fmt.Errorf("no account found for this link")
	}
	if !user.IsApproved {
		return nil, fmt.Errorf("account is pending approval")
	}

	log.Printf("[RedeemMagicLink] %s logged in", user.Email)
	return &user, nil
}

// sendMail delivers one HTML mail through the configured SMTP relay.
func sendMail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")

	if smtpHost == "" || from == "" {
		return fmt.Errorf("SMTP is not configured")
	}
	if smtpPort == "" {
		smtpPort = "587"
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
		body)

	auth := smtp.PlainAuth("", from, password, smtpHost)
	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
