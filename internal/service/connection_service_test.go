package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
)

type connectionFixture struct {
	svc      *connectionService
	users    *fakeUserRepo
	invites  *fakeInvitationRepo
	history  *fakeHistoryRepo
	trainer  domain.User
	client   domain.User
	trainerA Actor
	clientA  Actor
}

func newConnectionFixture() *connectionFixture {
	users := newFakeUserRepo()
	invites := newFakeInvitationRepo()
	history := &fakeHistoryRepo{}

	trainer := users.addUser(domain.User{Name: "Tina", Email: "tina@example.com", Role: domain.RoleTrainer})
	client := users.addUser(domain.User{Name: "Carl", Email: "carl@example.com", Role: domain.RoleClient})

	svc := &connectionService{
		userRepo:       users,
		invitationRepo: invites,
		historyRepo:    history,
		tx:             fakeTxRunner{},
		now:            func() time.Time { return time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC) },
	}

	return &connectionFixture{
		svc:      svc,
		users:    users,
		invites:  invites,
		history:  history,
		trainer:  trainer,
		client:   client,
		trainerA: Actor{ID: trainer.ID, Role: domain.RoleTrainer},
		clientA:  Actor{ID: client.ID, Role: domain.RoleClient},
	}
}

func TestCreateInvitationRoles(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	inv, err := f.svc.CreateInvitation(ctx, f.clientA, f.trainer.Email, "let's train")
	if err != nil {
		t.Fatalf("client inviting trainer: %v", err)
	}
	if inv.ClientID != f.client.ID || inv.TrainerID != f.trainer.ID {
		t.Fatalf("invitation pair mismatch: got client=%s trainer=%s", inv.ClientID.Hex(), inv.TrainerID.Hex())
	}
	if inv.InitiatorID != f.client.ID {
		t.Errorf("initiator = %s, want the client", inv.InitiatorID.Hex())
	}
	if !inv.IsPending() {
		t.Errorf("new invitation status = %s, want pending", inv.Status)
	}

	// Two clients cannot pair with each other.
	other := f.users.addUser(domain.User{Name: "Cleo", Email: "cleo@example.com", Role: domain.RoleClient})
	if _, err := f.svc.CreateInvitation(ctx, f.clientA, other.Email, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("client inviting client: err = %v, want ErrValidation", err)
	}

	if _, err := f.svc.CreateInvitation(ctx, f.clientA, "nobody@example.com", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown email: err = %v, want ErrUserNotFound", err)
	}
}

func TestCreateInvitationPendingPairIsUnique(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	if _, err := f.svc.CreateInvitation(ctx, f.clientA, f.trainer.Email, ""); err != nil {
		t.Fatalf("first invitation: %v", err)
	}
	// Same pair again, from either side.
	if _, err := f.svc.CreateInvitation(ctx, f.clientA, f.trainer.Email, ""); !errors.Is(err, ErrInvitationExists) {
		t.Fatalf("duplicate from client: err = %v, want ErrInvitationExists", err)
	}
	if _, err := f.svc.CreateInvitation(ctx, f.trainerA, f.client.Email, ""); !errors.Is(err, ErrInvitationExists) {
		t.Fatalf("duplicate from trainer: err = %v, want ErrInvitationExists", err)
	}
}

func TestResolveInvitationAccept(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	inv, err := f.svc.CreateInvitation(ctx, f.trainerA, f.client.Email, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resolved, err := f.svc.ResolveInvitation(ctx, f.clientA, inv.ID, domain.InvitationAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if resolved.Status != domain.InvitationAccepted {
		t.Errorf("status = %s, want accepted", resolved.Status)
	}

	client, _ := f.users.GetByID(ctx, f.client.ID)
	if !client.HasTrainer() || *client.TrainerID != f.trainer.ID {
		t.Fatalf("client not connected to trainer after accept")
	}
	if client.InvitationAcceptedAt == nil {
		t.Fatalf("InvitationAcceptedAt not recorded")
	}
	// Acceptance never writes history; rows appear only when a connection ends.
	if len(f.history.records) != 0 {
		t.Errorf("history rows after accept = %d, want 0", len(f.history.records))
	}
}

func TestResolveInvitationIsOneShot(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	inv, _ := f.svc.CreateInvitation(ctx, f.trainerA, f.client.Email, "")
	if _, err := f.svc.ResolveInvitation(ctx, f.clientA, inv.ID, domain.InvitationRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.ResolveInvitation(ctx, f.clientA, inv.ID, domain.InvitationAccepted); !errors.Is(err, ErrInvitationResolved) {
		t.Fatalf("second resolve: err = %v, want ErrInvitationResolved", err)
	}

	client, _ := f.users.GetByID(ctx, f.client.ID)
	if client.HasTrainer() {
		t.Errorf("client gained a trainer from a resolved invitation")
	}
}

func TestResolveInvitationOutsiderForbidden(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	inv, _ := f.svc.CreateInvitation(ctx, f.trainerA, f.client.Email, "")
	outsider := f.users.addUser(domain.User{Name: "Oz", Email: "oz@example.com", Role: domain.RoleTrainer})

	_, err := f.svc.ResolveInvitation(ctx, Actor{ID: outsider.ID, Role: domain.RoleTrainer}, inv.ID, domain.InvitationAccepted)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider resolve: err = %v, want ErrForbidden", err)
	}
}

func TestAcceptRequiresUnconnectedClient(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	// Client already connected to another trainer.
	other := f.users.addUser(domain.User{Name: "Theo", Email: "theo@example.com", Role: domain.RoleTrainer})
	f.users.SetTrainerForClient(ctx, f.client.ID, other.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	inv, err := f.svc.CreateInvitation(ctx, f.trainerA, f.client.Email, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.ResolveInvitation(ctx, f.clientA, inv.ID, domain.InvitationAccepted); !errors.Is(err, ErrValidation) {
		t.Fatalf("accept while connected: err = %v, want ErrValidation", err)
	}

	// The existing connection survives and no history row was written.
	client, _ := f.users.GetByID(ctx, f.client.ID)
	if *client.TrainerID != other.ID {
		t.Errorf("existing connection was disturbed")
	}
	if len(f.history.records) != 0 {
		t.Errorf("history rows = %d, want 0", len(f.history.records))
	}
}

func TestRemoveConnectionClosesHistory(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	acceptedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.users.SetTrainerForClient(ctx, f.client.ID, f.trainer.ID, acceptedAt)

	if err := f.svc.RemoveConnection(ctx, f.clientA, f.trainer.ID, f.client.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	client, _ := f.users.GetByID(ctx, f.client.ID)
	if client.HasTrainer() {
		t.Fatalf("client still connected after removal")
	}
	if client.InvitationAcceptedAt != nil {
		t.Errorf("InvitationAcceptedAt not cleared")
	}

	if len(f.history.records) != 1 {
		t.Fatalf("history rows = %d, want 1", len(f.history.records))
	}
	rec := f.history.records[0]
	if !rec.StartedAt.Equal(acceptedAt) {
		t.Errorf("StartedAt = %v, want the acceptance time %v", rec.StartedAt, acceptedAt)
	}
	if rec.EndedAt.Before(rec.StartedAt) {
		t.Errorf("EndedAt %v precedes StartedAt %v", rec.EndedAt, rec.StartedAt)
	}
	if rec.TrainerID != f.trainer.ID || rec.ClientID != f.client.ID {
		t.Errorf("history pair mismatch")
	}
}

func TestRemoveConnectionRequiresExistingLink(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	// Not connected at all.
	if err := f.svc.RemoveConnection(ctx, f.clientA, f.trainer.ID, f.client.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("remove without connection: err = %v, want ErrValidation", err)
	}
	if len(f.history.records) != 0 {
		t.Fatalf("history written for a connection that never existed")
	}

	// Outsider may not remove someone else's connection.
	f.users.SetTrainerForClient(ctx, f.client.ID, f.trainer.ID, time.Now().UTC())
	outsider := f.users.addUser(domain.User{Name: "Oz", Email: "oz2@example.com", Role: domain.RoleClient})
	err := f.svc.RemoveConnection(ctx, Actor{ID: outsider.ID, Role: domain.RoleClient}, f.trainer.ID, f.client.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider remove: err = %v, want ErrForbidden", err)
	}
}

func TestGetHistoryVisibility(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	f.users.SetTrainerForClient(ctx, f.client.ID, f.trainer.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err := f.svc.RemoveConnection(ctx, f.trainerA, f.trainer.ID, f.client.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	clientRows, err := f.svc.GetHistory(ctx, f.clientA, f.client.ID, false)
	if err != nil || len(clientRows) != 1 {
		t.Fatalf("client history: rows=%d err=%v, want 1 row", len(clientRows), err)
	}
	trainerRows, err := f.svc.GetHistory(ctx, f.trainerA, f.trainer.ID, true)
	if err != nil || len(trainerRows) != 1 {
		t.Fatalf("trainer history: rows=%d err=%v, want 1 row", len(trainerRows), err)
	}

	if _, err := f.svc.GetHistory(ctx, f.clientA, f.trainer.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("reading someone else's history: err = %v, want ErrForbidden", err)
	}

	admin := Actor{ID: f.users.addUser(domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}).ID, Role: domain.RoleAdmin}
	if _, err := f.svc.GetHistory(ctx, admin, f.client.ID, false); err != nil {
		t.Fatalf("admin history read: %v", err)
	}
}

func TestListClients(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture()

	f.users.SetTrainerForClient(ctx, f.client.ID, f.trainer.ID, time.Now().UTC())

	clients, err := f.svc.ListClients(ctx, f.trainerA, f.trainer.ID)
	if err != nil {
		t.Fatalf("list clients: %v", err)
	}
	if len(clients) != 1 || clients[0].ID != f.client.ID {
		t.Fatalf("roster = %d clients, want exactly the connected one", len(clients))
	}

	if _, err := f.svc.ListClients(ctx, f.clientA, f.trainer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("client listing a roster: err = %v, want ErrForbidden", err)
	}
}
