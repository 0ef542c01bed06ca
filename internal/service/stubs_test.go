package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"careline/internal/models"
)

type accountRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.Account, error)
	getByUsernameFn func(context.Context, string) (*models.Account, error)
	existsByLoginFn func(context.Context, string) (bool, error)
	createFn        func(context.Context, *models.Account) error
	updateFn        func(context.Context, *models.Account) error
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, models.Role, int, int) ([]models.Account, error)
}

func (s *accountRepoStub) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	return s.getByIDFn(ctx, id)
}
func (s *accountRepoStub) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *accountRepoStub) ExistsByLogin(ctx context.Context, handle string) (bool, error) {
	return s.existsByLoginFn(ctx, handle)
}
func (s *accountRepoStub) Create(ctx context.Context, account *models.Account) error {
	return s.createFn(ctx, account)
}
func (s *accountRepoStub) Update(ctx context.Context, account *models.Account) error {
	return s.updateFn(ctx, account)
}
func (s *accountRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *accountRepoStub) List(ctx context.Context, role models.Role, limit, offset int) ([]models.Account, error) {
	return s.listFn(ctx, role, limit, offset)
}

func noopAccountRepo() *accountRepoStub {
	return &accountRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Account, error) {
			return &models.Account{ID: id, Role: models.RoleAdmin, FirstName: "Ada", LastName: "Admin"}, nil
		},
		getByUsernameFn: func(context.Context, string) (*models.Account, error) { return nil, nil },
		existsByLoginFn: func(context.Context, string) (bool, error) { return false, nil },
		createFn:        func(context.Context, *models.Account) error { return nil },
		updateFn:        func(context.Context, *models.Account) error { return nil },
		deleteFn:        func(context.Context, uint) error { return nil },
		listFn:          func(context.Context, models.Role, int, int) ([]models.Account, error) { return nil, nil },
	}
}

type invitationRepoStub struct {
	createFn           func(context.Context, *models.Invitation) error
	getByIDFn          func(context.Context, uint) (*models.Invitation, error)
	getByTokenFn       func(context.Context, string) (*models.Invitation, error)
	hasActivePendingFn func(context.Context, string, time.Time) (bool, error)
	markExpiredFn      func(context.Context, uint) (bool, error)
	acceptFn           func(context.Context, uint, *models.Account, time.Time) error
	listFn             func(context.Context, models.InvitationStatus, int, int) ([]models.Invitation, error)
	expireOverdueFn    func(context.Context, time.Time) (int64, error)
}

func (s *invitationRepoStub) Create(ctx context.Context, inv *models.Invitation) error {
	return s.createFn(ctx, inv)
}
func (s *invitationRepoStub) GetByID(ctx context.Context, id uint) (*models.Invitation, error) {
	return s.getByIDFn(ctx, id)
}
func (s *invitationRepoStub) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	return s.getByTokenFn(ctx, token)
}
func (s *invitationRepoStub) HasActivePending(ctx context.Context, email string, now time.Time) (bool, error) {
	return s.hasActivePendingFn(ctx, email, now)
}
func (s *invitationRepoStub) MarkExpired(ctx context.Context, id uint) (bool, error) {
	return s.markExpiredFn(ctx, id)
}
func (s *invitationRepoStub) Accept(ctx context.Context, id uint, account *models.Account, now time.Time) error {
	return s.acceptFn(ctx, id, account, now)
}
func (s *invitationRepoStub) List(ctx context.Context, status models.InvitationStatus, limit, offset int) ([]models.Invitation, error) {
	return s.listFn(ctx, status, limit, offset)
}
func (s *invitationRepoStub) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.expireOverdueFn(ctx, now)
}

func noopInvitationRepo() *invitationRepoStub {
	return &invitationRepoStub{
		createFn:           func(context.Context, *models.Invitation) error { return nil },
		getByIDFn:          func(context.Context, uint) (*models.Invitation, error) { return &models.Invitation{}, nil },
		getByTokenFn:       func(context.Context, string) (*models.Invitation, error) { return nil, models.NewNotFoundError("Invitation", "token") },
		hasActivePendingFn: func(context.Context, string, time.Time) (bool, error) { return false, nil },
		markExpiredFn:      func(context.Context, uint) (bool, error) { return true, nil },
		acceptFn:           func(context.Context, uint, *models.Account, time.Time) error { return nil },
		listFn:             func(context.Context, models.InvitationStatus, int, int) ([]models.Invitation, error) { return nil, nil },
		expireOverdueFn:    func(context.Context, time.Time) (int64, error) { return 0, nil },
	}
}

// plainHasher is a reversible stand-in so tests can assert on stored hashes.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }
func (plainHasher) Matches(plain, hash string) bool { return hash != "" && hash == "h:"+plain }

type recordingNotifier struct {
	mu          sync.Mutex
	invitations []models.Invitation
	codes       map[string]string
	created     []models.Account
	denied      []string
	messages    []models.Message
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: map[string]string{}}
}

func (n *recordingNotifier) InvitationCreated(inv models.Invitation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invitations = append(n.invitations, inv)
}
func (n *recordingNotifier) ActivationCodeIssued(email, code string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[email] = code
}
func (n *recordingNotifier) AccountCreated(account models.Account) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, account)
}
func (n *recordingNotifier) RequestDenied(email, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.denied = append(n.denied, strings.TrimSpace(email+" "+reason))
}
func (n *recordingNotifier) MessageReceived(msg models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func validRegistration(username string) Registration {
	return Registration{
		FirstName:     "Alice",
		LastName:      "Liddell",
		Username:      username,
		Password:      "Wonderland42",
		Gender:        "F",
		ContactNumber: "555-0100",
	}
}
