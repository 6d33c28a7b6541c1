package app_test

import (
	"context"
	"sort"
	"time"

	"nft-market-service/internal/domain/bid"
	"nft-market-service/internal/domain/chat"
	"nft-market-service/internal/domain/listing"
	"nft-market-service/internal/domain/order"
	"nft-market-service/internal/domain/profile"
	"nft-market-service/internal/domain/shared"
	"nft-market-service/internal/domain/wallet"
	"nft-market-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// In-memory fakes for the outbound ports. They mimic only the behavior the
// services rely on; transactional guarantees are covered by the real store.

type fakeListingRepo struct {
	listings map[uuid.UUID]*listing.Listing
	failWith error
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[uuid.UUID]*listing.Listing)}
}

func (r *fakeListingRepo) add(l *listing.Listing) {
	cp := *l
	r.listings[l.ID] = &cp
}

func (r *fakeListingRepo) Create(ctx context.Context, l *listing.Listing) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.add(l)
	return nil
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	l, ok := r.listings[id]
	if !ok {
		return nil, shared.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) List(ctx context.Context, filter outbound.ListingFilter) ([]*listing.Listing, error) {
	out := make([]*listing.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.SaleType != nil && l.SaleType != *filter.SaleType {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeListingRepo) Update(ctx context.Context, l *listing.Listing) error {
	if _, ok := r.listings[l.ID]; !ok {
		return shared.ErrListingNotFound
	}
	r.add(l)
	return nil
}

func (r *fakeListingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status listing.Status) error {
	l, ok := r.listings[id]
	if !ok {
		return shared.ErrListingNotFound
	}
	if l.Status == listing.StatusSold || l.Status == listing.StatusCancelled {
		return shared.ErrListingTerminal
	}
	l.Status = status
	return nil
}

func (r *fakeListingRepo) GetExpiredAuctions(ctx context.Context, now time.Time) ([]*listing.Listing, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []*listing.Listing
	for _, l := range r.listings {
		if l.SaleType == listing.SaleTypeAuction && l.IsOpen() && l.AuctionEnded(now) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type fakeBidRepo struct {
	bids          map[uuid.UUID]*bid.Bid
	lastExclusive bool
	placeErr      error
}

func newFakeBidRepo() *fakeBidRepo {
	return &fakeBidRepo{bids: make(map[uuid.UUID]*bid.Bid)}
}

func (r *fakeBidRepo) add(b *bid.Bid) {
	cp := *b
	r.bids[b.ID] = &cp
}

func (r *fakeBidRepo) Place(ctx context.Context, b *bid.Bid, exclusive bool) error {
	r.lastExclusive = exclusive
	if r.placeErr != nil {
		return r.placeErr
	}
	if exclusive {
		for _, existing := range r.bids {
			if existing.ListingID == b.ListingID && existing.IsActive() {
				if b.Amount <= existing.Amount {
					return shared.ErrBidTooLow
				}
			}
		}
		for _, existing := range r.bids {
			if existing.ListingID == b.ListingID && existing.IsActive() {
				existing.Outbid()
			}
		}
	}
	r.add(b)
	return nil
}

func (r *fakeBidRepo) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	b, ok := r.bids[id]
	if !ok {
		return nil, shared.ErrBidNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBidRepo) GetActiveByListing(ctx context.Context, listingID uuid.UUID) ([]*bid.Bid, error) {
	var out []*bid.Bid
	for _, b := range r.bids {
		if b.ListingID == listingID && b.IsActive() {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

func (r *fakeBidRepo) GetHighestActive(ctx context.Context, listingID uuid.UUID) (*bid.Bid, error) {
	active, _ := r.GetActiveByListing(ctx, listingID)
	if len(active) == 0 {
		return nil, shared.ErrNoActiveBids
	}
	return active[0], nil
}

func (r *fakeBidRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status bid.Status) error {
	b, ok := r.bids[id]
	if !ok {
		return shared.ErrBidNotFound
	}
	b.Status = status
	return nil
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*profile.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*profile.Profile)}
}

func (r *fakeProfileRepo) addWithBalance(id uuid.UUID, balance float64) {
	r.profiles[id] = &profile.Profile{ID: id, WalletBalance: balance}
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) Create(ctx context.Context, p *profile.Profile) error {
	r.profiles[p.ID] = p
	return nil
}

// fakeExecutor records trade executor calls and returns configured outcomes
type fakeExecutor struct {
	completeTradeErr error
	completeCalls    int
	lastBuyerID      uuid.UUID
	lastAmount       float64
	verificationErr  error
	verifyResult     *shared.PaymentResult
	verifyErr        error
	creditedAmounts  map[uuid.UUID]float64
	creditErr        error
	payments         *fakePaymentRepo
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{creditedAmounts: make(map[uuid.UUID]float64)}
}

func (e *fakeExecutor) CompleteTrade(ctx context.Context, listingID, buyerID uuid.UUID, amount float64) (*order.Order, error) {
	e.completeCalls++
	e.lastBuyerID = buyerID
	e.lastAmount = amount
	if e.completeTradeErr != nil {
		return nil, e.completeTradeErr
	}
	now := time.Now()
	return &order.Order{
		ID:        uuid.New(),
		ListingID: listingID,
		BuyerID:   buyerID,
		Price:     amount,
		Status:    order.StatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (e *fakeExecutor) CreateOrderWithVerification(ctx context.Context, listingID, buyerID uuid.UUID, amount float64) (*order.Order, error) {
	if e.verificationErr != nil {
		return nil, e.verificationErr
	}
	now := time.Now()
	return &order.Order{
		ID:               uuid.New(),
		ListingID:        listingID,
		BuyerID:          buyerID,
		Price:            amount,
		Status:           order.StatusAwaitingVerification,
		VerificationCode: order.GenerateVerificationCode(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (e *fakeExecutor) VerifyOrderPayment(ctx context.Context, verificationCode string) (*shared.PaymentResult, error) {
	if e.verifyErr != nil {
		return nil, e.verifyErr
	}
	if e.verifyResult != nil {
		return e.verifyResult, nil
	}
	return &shared.PaymentResult{Success: true, Message: "Order verified and payment completed"}, nil
}

// CreditTopUp mimics the real executor's all-or-nothing credit: a failure
// leaves no credit, a completed payment is skipped, success flips the status
// in the same step.
func (e *fakeExecutor) CreditTopUp(ctx context.Context, paymentID, userID uuid.UUID, amount float64) error {
	if e.creditErr != nil {
		return e.creditErr
	}
	if e.payments != nil {
		p := e.payments.byID(paymentID)
		if p == nil || p.UserID != userID {
			return shared.ErrPaymentNotFound
		}
		if p.Status == wallet.PaymentCompleted {
			return nil
		}
		p.Status = wallet.PaymentCompleted
	}
	e.creditedAmounts[userID] += amount
	return nil
}

// fakeBroadcaster records every published event
type fakeBroadcaster struct {
	events []outbound.Event
}

func (b *fakeBroadcaster) Subscribe(ctx context.Context, listingID uuid.UUID, clientID string, eventChan chan outbound.Event) error {
	return nil
}

func (b *fakeBroadcaster) Unsubscribe(ctx context.Context, listingID uuid.UUID, clientID string) error {
	return nil
}

func (b *fakeBroadcaster) Publish(ctx context.Context, listingID uuid.UUID, event outbound.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBroadcaster) IsSubscribed(ctx context.Context, listingID uuid.UUID, clientID string) bool {
	return false
}

func (b *fakeBroadcaster) eventsOfType(t outbound.EventType) []outbound.Event {
	var out []outbound.Event
	for _, e := range b.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*order.Order
	scans     []uuid.UUID
	scanErr   error
	getErr    error
	listTotal int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepo) add(o *order.Order) {
	cp := *o
	r.orders[o.ID] = &cp
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByVerificationCode(ctx context.Context, code string) (*order.Order, error) {
	for _, o := range r.orders {
		if o.VerificationCode != "" && o.VerificationCode == code {
			cp := *o
			return &cp, nil
		}
	}
	return nil, shared.ErrOrderNotFound
}

func (r *fakeOrderRepo) List(ctx context.Context, filter outbound.OrderFilter) ([]*order.Order, int, error) {
	var out []*order.Order
	for _, o := range r.orders {
		if filter.UserID != nil && !o.Involves(*filter.UserID) {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r *fakeOrderRepo) RecordScan(ctx context.Context, orderID uuid.UUID, scannedByIP string, at time.Time) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	r.scans = append(r.scans, orderID)
	return nil
}

type fakePaymentRepo struct {
	payments map[string]*wallet.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*wallet.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *wallet.Payment) error {
	cp := *p
	r.payments[p.IntentID] = &cp
	return nil
}

func (r *fakePaymentRepo) byID(id uuid.UUID) *wallet.Payment {
	for _, p := range r.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *fakePaymentRepo) GetByIntentID(ctx context.Context, intentID string, userID uuid.UUID) (*wallet.Payment, error) {
	p, ok := r.payments[intentID]
	if !ok || p.UserID != userID {
		return nil, shared.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status wallet.PaymentStatus) error {
	for _, p := range r.payments {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return shared.ErrPaymentNotFound
}

type fakeProvider struct {
	intents   map[string]*outbound.PaymentIntent
	createErr error
	getErr    error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: make(map[string]*outbound.PaymentIntent)}
}

func (p *fakeProvider) CreateIntent(ctx context.Context, amount float64, reference string) (*outbound.PaymentIntent, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	intent := &outbound.PaymentIntent{
		ID:           "pi_" + uuid.New().String(),
		ClientSecret: "secret_" + uuid.New().String(),
		Amount:       amount,
		Status:       outbound.IntentStatusPending,
	}
	p.intents[intent.ID] = intent
	return intent, nil
}

func (p *fakeProvider) GetIntent(ctx context.Context, intentID string) (*outbound.PaymentIntent, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	intent, ok := p.intents[intentID]
	if !ok {
		return nil, shared.ErrPaymentNotFound
	}
	return intent, nil
}

type fakeChatRepo struct {
	conversations map[uuid.UUID]*chat.Conversation
	messages      []*chat.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{conversations: make(map[uuid.UUID]*chat.Conversation)}
}

func (r *fakeChatRepo) CreateConversation(ctx context.Context, c *chat.Conversation) error {
	cp := *c
	r.conversations[c.ID] = &cp
	return nil
}

func (r *fakeChatRepo) FindConversation(ctx context.Context, listingID, buyerID uuid.UUID) (*chat.Conversation, error) {
	for _, c := range r.conversations {
		if c.ListingID == listingID && c.BuyerID == buyerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrConversationNotFound
}

func (r *fakeChatRepo) GetConversation(ctx context.Context, id uuid.UUID) (*chat.Conversation, error) {
	c, ok := r.conversations[id]
	if !ok {
		return nil, shared.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChatRepo) ListConversations(ctx context.Context, userID uuid.UUID) ([]*chat.Conversation, error) {
	var out []*chat.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, m *chat.Message) error {
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, page, pageSize int) ([]*chat.Message, error) {
	var out []*chat.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}
