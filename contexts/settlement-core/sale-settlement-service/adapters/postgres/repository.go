package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	sequenceRowID = 1
)

// Repository is the PostgreSQL persistence for the settlement module. It also
// doubles as the unit of work; Execute hands a transaction-scoped copy of
// itself to the callback so repository writes and ledger transfers commit or
// roll back together.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Execute(ctx context.Context, fn func(ctx context.Context, stores ports.SettlementStores) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &Repository{db: tx, logger: r.logger}
		return fn(ctx, scoped)
	})
}

// --- sale state ------------------------------------------------------------

func (r *Repository) GetSaleState(ctx context.Context, saleID string) (entities.SaleState, bool, error) {
	var row saleStateModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sale_id = ?", saleID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SaleState{}, false, nil
		}
		return entities.SaleState{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) PutSaleState(ctx context.Context, state entities.SaleState) error {
	row := saleStateModelFromEntity(state)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sale_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"locked", "remaining", "canceled", "updated_at"}),
		}).
		Create(&row).
		Error
}

// --- royalty ---------------------------------------------------------------

func (r *Repository) GetRoyalty(ctx context.Context, assetContract string) (entities.RoyaltyInfo, bool, error) {
	var row royaltyModel
	err := r.db.WithContext(ctx).
		Where("asset_contract = ?", assetContract).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RoyaltyInfo{}, false, nil
		}
		return entities.RoyaltyInfo{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) PutRoyalty(ctx context.Context, info entities.RoyaltyInfo) error {
	row := royaltyModelFromEntity(info)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_contract"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate_bps", "receiver", "updated_at"}),
		}).
		Create(&row).
		Error
}

// --- settlement log + outbox -----------------------------------------------

func (r *Repository) CreateSettlementWithOutbox(ctx context.Context, settlement entities.Settlement, event ports.PurchasedEvent) error {
	envelope, err := ports.NewPurchasedEnvelope(event)
	if err != nil {
		return err
	}
	row := settlementModelFromEntity(settlement)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return r.appendOutbox(ctx, envelope)
}

func (r *Repository) CreateCancellationWithOutbox(ctx context.Context, cancellation entities.Cancellation, event ports.CanceledEvent) error {
	envelope, err := ports.NewCanceledEnvelope(event)
	if err != nil {
		return err
	}
	row := cancellationModelFromEntity(cancellation)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyCanceled
		}
		return err
	}
	return r.appendOutbox(ctx, envelope)
}

func (r *Repository) appendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) ListSettlements(ctx context.Context, filter ports.SettlementFilter) ([]entities.Settlement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	tx := r.db.WithContext(ctx).Model(&settlementModel{})
	if filter.SaleID != "" {
		tx = tx.Where("sale_id = ?", filter.SaleID)
	}
	if filter.Buyer != "" {
		tx = tx.Where("buyer = ?", filter.Buyer)
	}
	if filter.Seller != "" {
		tx = tx.Where("seller = ?", filter.Seller)
	}

	var rows []settlementModel
	if err := tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "settled_at"}, Desc: false}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "settlement_id"}, Desc: false}).
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Settlement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetCancellation(ctx context.Context, saleID string) (entities.Cancellation, bool, error) {
	var row cancellationModel
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Cancellation{}, false, nil
		}
		return entities.Cancellation{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

// --- ordering counter ------------------------------------------------------

func (r *Repository) Current(ctx context.Context) (uint64, error) {
	var row sequenceModel
	err := r.db.WithContext(ctx).
		Where("id = ?", sequenceRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Value, nil
}

func (r *Repository) Advance(ctx context.Context) (uint64, error) {
	seed := sequenceModel{ID: sequenceRowID, Value: 0}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&seed).
		Error; err != nil {
		return 0, err
	}

	var value uint64
	err := r.db.WithContext(ctx).
		Raw("UPDATE settlement_sequence SET value = value + 1 WHERE id = ? RETURNING value", sequenceRowID).
		Scan(&value).
		Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// --- payment ledger --------------------------------------------------------

func (r *Repository) TransferNative(ctx context.Context, payer string, payee string, amount uint64) error {
	debit := r.db.WithContext(ctx).
		Model(&nativeAccountModel{}).
		Where("identity = ? AND balance >= ?", payer, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if debit.Error != nil {
		return debit.Error
	}
	if debit.RowsAffected == 0 {
		return domainerrors.ErrTransferFailed
	}
	return r.creditNative(ctx, payee, amount)
}

func (r *Repository) creditNative(ctx context.Context, identity string, amount uint64) error {
	row := nativeAccountModel{Identity: identity, Balance: amount}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "identity"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance": gorm.Expr("native_accounts.balance + ?", amount),
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) TransferFungible(ctx context.Context, asset string, payer string, payee string, amount uint64) error {
	var account fungibleAccountModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("asset = ? AND identity = ?", asset, payer).
		First(&account).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrInsufficientAllowance
		}
		return err
	}
	if account.Allowance < amount {
		return domainerrors.ErrInsufficientAllowance
	}
	if account.Balance < amount {
		return domainerrors.ErrTransferFailed
	}

	debit := r.db.WithContext(ctx).
		Model(&fungibleAccountModel{}).
		Where("asset = ? AND identity = ? AND balance >= ? AND allowance >= ?", asset, payer, amount, amount).
		Updates(map[string]any{
			"balance":   gorm.Expr("balance - ?", amount),
			"allowance": gorm.Expr("allowance - ?", amount),
		})
	if debit.Error != nil {
		return debit.Error
	}
	if debit.RowsAffected == 0 {
		return domainerrors.ErrTransferFailed
	}

	row := fungibleAccountModel{Asset: asset, Identity: payee, Balance: amount}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "asset"}, {Name: "identity"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance": gorm.Expr("fungible_accounts.balance + ?", amount),
			}),
		}).
		Create(&row).
		Error
}

// --- asset ledger ----------------------------------------------------------

func (r *Repository) TransferUnique(ctx context.Context, assetContract string, from string, to string, itemID string) error {
	approved, err := r.operatorApproved(ctx, assetContract, from)
	if err != nil {
		return err
	}
	if !approved {
		return domainerrors.ErrTransferFailed
	}

	result := r.db.WithContext(ctx).
		Model(&uniqueAssetModel{}).
		Where("asset_contract = ? AND item_id = ? AND owner = ?", assetContract, itemID, from).
		Update("owner", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTransferFailed
	}
	return nil
}

func (r *Repository) TransferQuantity(ctx context.Context, assetContract string, from string, to string, itemID string, amount uint64) error {
	approved, err := r.operatorApproved(ctx, assetContract, from)
	if err != nil {
		return err
	}
	if !approved {
		return domainerrors.ErrTransferFailed
	}

	debit := r.db.WithContext(ctx).
		Model(&quantityHoldingModel{}).
		Where("asset_contract = ? AND owner = ? AND item_id = ? AND amount >= ?", assetContract, from, itemID, amount).
		Update("amount", gorm.Expr("amount - ?", amount))
	if debit.Error != nil {
		return debit.Error
	}
	if debit.RowsAffected == 0 {
		return domainerrors.ErrTransferFailed
	}

	row := quantityHoldingModel{AssetContract: assetContract, Owner: to, ItemID: itemID, Amount: amount}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "asset_contract"}, {Name: "owner"}, {Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount": gorm.Expr("quantity_holdings.amount + ?", amount),
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) operatorApproved(ctx context.Context, assetContract string, owner string) (bool, error) {
	var row operatorApprovalModel
	err := r.db.WithContext(ctx).
		Where("asset_contract = ? AND owner = ?", assetContract, owner).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return row.Approved, nil
}

// --- row models ------------------------------------------------------------

type saleStateModel struct {
	SaleID    string    `gorm:"column:sale_id;primaryKey"`
	Locked    bool      `gorm:"column:locked"`
	Remaining uint64    `gorm:"column:remaining"`
	Canceled  bool      `gorm:"column:canceled"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (saleStateModel) TableName() string {
	return "sale_states"
}

func saleStateModelFromEntity(state entities.SaleState) saleStateModel {
	return saleStateModel{
		SaleID:    state.SaleID,
		Locked:    state.Locked,
		Remaining: state.Remaining,
		Canceled:  state.Canceled,
		UpdatedAt: state.UpdatedAt.UTC(),
	}
}

func (m saleStateModel) toEntity() entities.SaleState {
	return entities.SaleState{
		SaleID:    m.SaleID,
		Locked:    m.Locked,
		Remaining: m.Remaining,
		Canceled:  m.Canceled,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type royaltyModel struct {
	AssetContract string    `gorm:"column:asset_contract;primaryKey"`
	RateBps       uint64    `gorm:"column:rate_bps"`
	Receiver      string    `gorm:"column:receiver"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (royaltyModel) TableName() string {
	return "royalty_settings"
}

func royaltyModelFromEntity(info entities.RoyaltyInfo) royaltyModel {
	return royaltyModel{
		AssetContract: info.AssetContract,
		RateBps:       info.RateBps,
		Receiver:      info.Receiver,
		UpdatedAt:     info.UpdatedAt.UTC(),
	}
}

func (m royaltyModel) toEntity() entities.RoyaltyInfo {
	return entities.RoyaltyInfo{
		AssetContract: m.AssetContract,
		RateBps:       m.RateBps,
		Receiver:      m.Receiver,
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type settlementModel struct {
	SettlementID  string    `gorm:"column:settlement_id;primaryKey"`
	SaleID        string    `gorm:"column:sale_id"`
	Buyer         string    `gorm:"column:buyer"`
	Seller        string    `gorm:"column:seller"`
	AssetContract string    `gorm:"column:asset_contract"`
	ItemID        string    `gorm:"column:item_id"`
	AssetKind     string    `gorm:"column:asset_kind"`
	PaymentAsset  string    `gorm:"column:payment_asset"`
	Amount        uint64    `gorm:"column:amount"`
	CommissionFee uint64    `gorm:"column:commission_fee"`
	RoyaltyFee    uint64    `gorm:"column:royalty_fee"`
	SellerPayout  uint64    `gorm:"column:seller_payout"`
	SettledAt     time.Time `gorm:"column:settled_at"`
}

func (settlementModel) TableName() string {
	return "settlements"
}

func settlementModelFromEntity(settlement entities.Settlement) settlementModel {
	return settlementModel{
		SettlementID:  settlement.SettlementID,
		SaleID:        settlement.SaleID,
		Buyer:         settlement.Buyer,
		Seller:        settlement.Seller,
		AssetContract: settlement.AssetContract,
		ItemID:        settlement.ItemID,
		AssetKind:     string(settlement.AssetKind),
		PaymentAsset:  settlement.PaymentAsset,
		Amount:        settlement.Amount,
		CommissionFee: settlement.CommissionFee,
		RoyaltyFee:    settlement.RoyaltyFee,
		SellerPayout:  settlement.SellerPayout,
		SettledAt:     settlement.SettledAt.UTC(),
	}
}

func (m settlementModel) toEntity() entities.Settlement {
	return entities.Settlement{
		SettlementID:  m.SettlementID,
		SaleID:        m.SaleID,
		Buyer:         m.Buyer,
		Seller:        m.Seller,
		AssetContract: m.AssetContract,
		ItemID:        m.ItemID,
		AssetKind:     entities.AssetKind(m.AssetKind),
		PaymentAsset:  m.PaymentAsset,
		Amount:        m.Amount,
		CommissionFee: m.CommissionFee,
		RoyaltyFee:    m.RoyaltyFee,
		SellerPayout:  m.SellerPayout,
		SettledAt:     m.SettledAt.UTC(),
	}
}

type cancellationModel struct {
	SaleID     string    `gorm:"column:sale_id;primaryKey"`
	Canceler   string    `gorm:"column:canceler"`
	CanceledAt time.Time `gorm:"column:canceled_at"`
}

func (cancellationModel) TableName() string {
	return "sale_cancellations"
}

func cancellationModelFromEntity(cancellation entities.Cancellation) cancellationModel {
	return cancellationModel{
		SaleID:     cancellation.SaleID,
		Canceler:   cancellation.Canceler,
		CanceledAt: cancellation.CanceledAt.UTC(),
	}
}

func (m cancellationModel) toEntity() entities.Cancellation {
	return entities.Cancellation{
		SaleID:     m.SaleID,
		Canceler:   m.Canceler,
		CanceledAt: m.CanceledAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "settlement_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type sequenceModel struct {
	ID    int    `gorm:"column:id;primaryKey"`
	Value uint64 `gorm:"column:value"`
}

func (sequenceModel) TableName() string {
	return "settlement_sequence"
}

type nativeAccountModel struct {
	Identity string `gorm:"column:identity;primaryKey"`
	Balance  uint64 `gorm:"column:balance"`
}

func (nativeAccountModel) TableName() string {
	return "native_accounts"
}

type fungibleAccountModel struct {
	Asset     string `gorm:"column:asset;primaryKey"`
	Identity  string `gorm:"column:identity;primaryKey"`
	Balance   uint64 `gorm:"column:balance"`
	Allowance uint64 `gorm:"column:allowance"`
}

func (fungibleAccountModel) TableName() string {
	return "fungible_accounts"
}

type uniqueAssetModel struct {
	AssetContract string `gorm:"column:asset_contract;primaryKey"`
	ItemID        string `gorm:"column:item_id;primaryKey"`
	Owner         string `gorm:"column:owner"`
}

func (uniqueAssetModel) TableName() string {
	return "unique_assets"
}

type quantityHoldingModel struct {
	AssetContract string `gorm:"column:asset_contract;primaryKey"`
	Owner         string `gorm:"column:owner;primaryKey"`
	ItemID        string `gorm:"column:item_id;primaryKey"`
	Amount        uint64 `gorm:"column:amount"`
}

func (quantityHoldingModel) TableName() string {
	return "quantity_holdings"
}

type operatorApprovalModel struct {
	AssetContract string `gorm:"column:asset_contract;primaryKey"`
	Owner         string `gorm:"column:owner;primaryKey"`
	Approved      bool   `gorm:"column:approved"`
}

func (operatorApprovalModel) TableName() string {
	return "operator_approvals"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
