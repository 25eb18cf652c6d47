package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bodekasse/internal/amqp"
	"bodekasse/internal/auth"
	"bodekasse/internal/core"
	"bodekasse/internal/log"
	"bodekasse/internal/store"
)

// Publisher announces committed ledger changes.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// Options configures a FineService. Zero values pick sensible defaults,
// except Gate: a nil gate rejects every admin operation.
type Options struct {
	Catalog        core.Catalog
	Gate           *auth.Gate
	Publisher      Publisher
	PaymentPhone   string
	PaymentBaseURL string
	Logger         *log.Logger
	Now            func() time.Time
	NewID          func() string
}

// FineService runs the admin operations and builds the read views. Every
// call reloads what it needs from the store; writes are load, modify, save
// with no locking, so the last save wins.
type FineService struct {
	store     store.Store
	catalog   core.Catalog
	gate      *auth.Gate
	publisher Publisher
	phone     string
	baseURL   string
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
	newID     func() string
}

func NewFineService(st store.Store, opts Options) *FineService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentLedger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	catalog := opts.Catalog
	if catalog.Len() == 0 {
		catalog, _ = core.NewCatalog(core.DefaultCatalog)
	}
	return &FineService{
		store:     st,
		catalog:   catalog,
		gate:      opts.Gate,
		publisher: opts.Publisher,
		phone:     opts.PaymentPhone,
		baseURL:   opts.PaymentBaseURL,
		logger:    logger,
		events:    log.NewStructuredLogger(logger.WithComponent(log.ComponentAdmin)),
		now:       now,
		newID:     newID,
	}
}

// Board is everything the public page shows.
type Board struct {
	Catalog      []core.CatalogEntry
	Members      []core.Member
	Former       []string // names with fines who left the roster
	Totals       []core.MemberTotal
	GrandTotal   int64
	PaymentLinks []core.PaymentLink
}

// Catalog returns the fine types in display order.
func (s *FineService) Catalog() []core.CatalogEntry {
	return s.catalog.Entries()
}

// IsAdmin reports whether token unlocks the admin operations.
func (s *FineService) IsAdmin(token string) bool {
	return s.gate.IsAdmin(token)
}

// Board loads both datasets concurrently and derives the public view.
func (s *FineService) Board(ctx context.Context) (Board, error) {
	var (
		members []core.Member
		fines   []core.Fine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.store.LoadMembers(gctx)
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fines, err = s.store.LoadFines(gctx)
		if err != nil {
			return fmt.Errorf("load fines: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Board{}, err
	}

	totals := core.Totals(fines)
	return Board{
		Catalog:      s.catalog.Entries(),
		Members:      members,
		Former:       core.Unlisted(members, fines),
		Totals:       totals,
		GrandTotal:   core.GrandTotal(fines),
		PaymentLinks: core.PaymentLinks(s.baseURL, s.phone, totals),
	}, nil
}

// History returns the fines recorded against member in storage order.
func (s *FineService) History(ctx context.Context, member string) ([]core.Fine, error) {
	fines, err := s.store.LoadFines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fines: %w", err)
	}
	return core.History(fines, member), nil
}

func (s *FineService) Members(ctx context.Context) ([]core.Member, error) {
	members, err := s.store.LoadMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return members, nil
}

// Ready reports whether the store can be read.
func (s *FineService) Ready(ctx context.Context) error {
	_, err := s.store.LoadMembers(ctx)
	return err
}

// AssignFine records a fine of fineType against member, dated today.
func (s *FineService) AssignFine(ctx context.Context, token, member, fineType string) (core.Fine, error) {
	fields := log.NewFields()
	fields[log.FieldMember] = member
	fields[log.FieldFineType] = fineType
	if err := s.authorize(ctx, token, log.OpAssignFine, fields); err != nil {
		return core.Fine{}, err
	}

	members, err := s.store.LoadMembers(ctx)
	if err != nil {
		return core.Fine{}, fmt.Errorf("load members: %w", err)
	}
	if !core.HasMember(members, member) {
		return core.Fine{}, s.reject(ctx, log.OpAssignFine, fmt.Errorf("%w: %q", core.ErrUnknownMember, member), fields)
	}
	amount, ok := s.catalog.Amount(fineType)
	if !ok {
		return core.Fine{}, s.reject(ctx, log.OpAssignFine, fmt.Errorf("%w: %q", core.ErrUnknownFineType, fineType), fields)
	}

	fines, err := s.store.LoadFines(ctx)
	if err != nil {
		return core.Fine{}, fmt.Errorf("load fines: %w", err)
	}
	fine := core.Fine{
		ID:       s.newID(),
		Member:   member,
		FineType: fineType,
		Amount:   amount,
		Date:     core.DateOf(s.now()),
	}
	if err := s.store.SaveFines(ctx, append(fines, fine)); err != nil {
		return core.Fine{}, fmt.Errorf("save fines: %w", err)
	}

	s.logger.InfoContext(ctx, "Fine assigned",
		log.FieldFineID, fine.ID,
		log.FieldMember, member,
		log.FieldFineType, fineType,
		log.FieldAmount, amount)

	ev := amqp.NewLedgerEvent(amqp.EventFineAssigned, member)
	ev.FineType = fineType
	ev.Amount = amount
	ev.Count = 1
	s.publish(ctx, ev)
	return fine, nil
}

// AddMember adds name to the roster. Surrounding whitespace is dropped.
func (s *FineService) AddMember(ctx context.Context, token, name string) (core.Member, error) {
	name = strings.TrimSpace(name)
	fields := log.NewFields()
	fields[log.FieldMember] = name
	if err := s.authorize(ctx, token, log.OpAddMember, fields); err != nil {
		return core.Member{}, err
	}

	m := core.Member{Name: name}
	if err := m.Validate(); err != nil {
		return core.Member{}, s.reject(ctx, log.OpAddMember, err, fields)
	}

	members, err := s.store.LoadMembers(ctx)
	if err != nil {
		return core.Member{}, fmt.Errorf("load members: %w", err)
	}
	if core.HasMember(members, name) {
		return core.Member{}, s.reject(ctx, log.OpAddMember, fmt.Errorf("%w: %q", core.ErrDuplicateMember, name), fields)
	}

	members = append(members, m)
	store.SortMembers(members)
	if err := s.store.SaveMembers(ctx, members); err != nil {
		return core.Member{}, fmt.Errorf("save members: %w", err)
	}

	s.logger.InfoContext(ctx, "Member added", log.FieldMember, name, "roster_size", len(members))
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventMemberAdded, name))
	return m, nil
}

// RemoveMember deletes every roster entry named name and returns how many
// were removed. Their fines stay in the ledger.
func (s *FineService) RemoveMember(ctx context.Context, token, name string) (int, error) {
	fields := log.NewFields()
	fields[log.FieldMember] = name
	if err := s.authorize(ctx, token, log.OpRemoveMember, fields); err != nil {
		return 0, err
	}

	members, err := s.store.LoadMembers(ctx)
	if err != nil {
		return 0, fmt.Errorf("load members: %w", err)
	}
	kept := make([]core.Member, 0, len(members))
	for _, m := range members {
		if m.Name != name {
			kept = append(kept, m)
		}
	}
	removed := len(members) - len(kept)
	if removed == 0 {
		return 0, s.reject(ctx, log.OpRemoveMember, fmt.Errorf("%w: %q", core.ErrUnknownMember, name), fields)
	}
	if err := s.store.SaveMembers(ctx, kept); err != nil {
		return 0, fmt.Errorf("save members: %w", err)
	}

	s.logger.InfoContext(ctx, "Member removed", log.FieldMember, name, log.FieldCount, removed)
	ev := amqp.NewLedgerEvent(amqp.EventMemberRemoved, name)
	ev.Count = removed
	s.publish(ctx, ev)
	return removed, nil
}

// ClearMemberFines deletes every fine recorded against member, including
// fines of members no longer on the roster, and returns how many went.
func (s *FineService) ClearMemberFines(ctx context.Context, token, member string) (int, error) {
	fields := log.NewFields()
	fields[log.FieldMember] = member
	if err := s.authorize(ctx, token, log.OpClearFines, fields); err != nil {
		return 0, err
	}

	fines, err := s.store.LoadFines(ctx)
	if err != nil {
		return 0, fmt.Errorf("load fines: %w", err)
	}
	kept := make([]core.Fine, 0, len(fines))
	for _, f := range fines {
		if f.Member != member {
			kept = append(kept, f)
		}
	}
	removed := len(fines) - len(kept)
	if err := s.store.SaveFines(ctx, kept); err != nil {
		return 0, fmt.Errorf("save fines: %w", err)
	}

	s.logger.InfoContext(ctx, "Fines cleared", log.FieldMember, member, log.FieldCount, removed)
	if removed > 0 {
		ev := amqp.NewLedgerEvent(amqp.EventFinesCleared, member)
		ev.Count = removed
		s.publish(ctx, ev)
	}
	return removed, nil
}

func (s *FineService) authorize(ctx context.Context, token, op string, fields log.LogFields) error {
	if s.gate.IsAdmin(token) {
		return nil
	}
	return s.reject(ctx, op, core.ErrNotAuthorized, fields)
}

func (s *FineService) reject(ctx context.Context, op string, err error, fields log.LogFields) error {
	s.events.LogAdminRejected(ctx, op, err, fields)
	return err
}

// publish never fails the caller: the change is already saved.
func (s *FineService) publish(ctx context.Context, ev amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventType, ev.Type,
			log.FieldMember, ev.Member,
			log.FieldError, err)
	}
}
