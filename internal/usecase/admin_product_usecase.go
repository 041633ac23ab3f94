package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"catalog/internal/domain/model"
	"catalog/internal/metrics"
	repo "catalog/internal/repository"

	"github.com/google/uuid"
)

// フィールド名 -> エラーメッセージ。空なら妥当。
// 中身はフォーム側（validator）が作り、ここでは空かどうかしか見ない。
type ValidationResult map[string]string

func (v ValidationResult) Valid() bool {
	return len(v) == 0
}

// 管理画面の編集フローの状態
type EditState string

const (
	EditStateListing         EditState = "LISTING"
	EditStateEditing         EditState = "EDITING"
	EditStateSaved           EditState = "SAVED"
	EditStateRejectedInvalid EditState = "REJECTED_INVALID"
)

// SubmitEdit の結果。
// SAVED なら Product は保存後の値、REJECTED_INVALID なら送られてきた未保存の値。
type SubmitResult struct {
	State   EditState        `json:"state"`
	Product model.Product    `json:"product"`
	Errors  ValidationResult `json:"errors,omitempty"`
}

func (r SubmitResult) Saved() bool {
	return r.State == EditStateSaved
}

// 保存後の遷移先。SAVED なら一覧、却下なら編集画面のまま。
func (r SubmitResult) Next() EditState {
	if r.Saved() {
		return EditStateListing
	}
	return EditStateEditing
}

// イベント送信の待ち時間の上限。超えたら諦めてログだけ残す。
const defaultPublishTimeout = 2 * time.Second

// 管理者の作成・編集・削除。
// 呼び出しをまたいだ状態は持たない（編集中の値は引数と戻り値で受け渡す）。
type AdminProductUsecase struct {
	products  repo.ProductRepository
	auditRepo repo.AuditLogRepository // nil可
	publisher repo.EventPublisher     // nil可
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
	newID     func() string

	publishTimeout time.Duration
}

type AdminOption func(*AdminProductUsecase)

func WithAuditLog(r repo.AuditLogRepository) AdminOption {
	return func(u *AdminProductUsecase) { u.auditRepo = r }
}

func WithEventPublisher(p repo.EventPublisher) AdminOption {
	return func(u *AdminProductUsecase) { u.publisher = p }
}

func WithPublishTimeout(d time.Duration) AdminOption {
	return func(u *AdminProductUsecase) { u.publishTimeout = d }
}

func WithAdminMetrics(m *metrics.Metrics) AdminOption {
	return func(u *AdminProductUsecase) { u.metrics = m }
}

func WithLogger(l *slog.Logger) AdminOption {
	return func(u *AdminProductUsecase) { u.log = l }
}

func WithClock(now func() time.Time) AdminOption {
	return func(u *AdminProductUsecase) { u.now = now }
}

// DI
func NewAdminProductUsecase(products repo.ProductRepository, opts ...AdminOption) *AdminProductUsecase {
	u := &AdminProductUsecase{
		products: products,
		log:      slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,

		publishTimeout: defaultPublishTimeout,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// 管理画面の一覧（全件、ID昇順）
func (u *AdminProductUsecase) Index(ctx context.Context) ([]model.Product, error) {
	return u.products.Products(ctx)
}

// 新規作成用の空の候補
func (u *AdminProductUsecase) BeginCreate() model.Product {
	return model.Product{}
}

// 編集開始。無いIDは false（エラーではない）。
func (u *AdminProductUsecase) BeginEdit(ctx context.Context, id int64) (model.Product, bool, error) {
	return findProduct(ctx, u.products, id)
}

// 検証結果が空のときだけ1回保存する。
// 空でなければストアには触れず、候補とエラーをそのまま返す。
func (u *AdminProductUsecase) SubmitEdit(ctx context.Context, adminUserID int64, candidate model.Product, validation ValidationResult) (SubmitResult, error) {
	if !validation.Valid() {
		u.metrics.ObserveSubmission("rejected_invalid")
		return SubmitResult{
			State:   EditStateRejectedInvalid,
			Product: candidate,
			Errors:  validation,
		}, nil
	}

	// 監査ログ用に変更前を取っておく（新規なら無い）
	var before *model.Product
	if u.auditRepo != nil && !candidate.IsNew() {
		if p, ok, err := findProduct(ctx, u.products, candidate.ID); err == nil && ok {
			before = &p
		}
	}

	saved, err := u.products.SaveProduct(ctx, candidate)
	if err != nil {
		u.metrics.ObserveSubmission("error")
		return SubmitResult{}, err
	}
	u.metrics.ObserveSubmission("saved")

	u.audit(ctx, adminUserID, model.AuditActionSaveProduct, saved.ID, before, &saved)
	u.publish(ctx, model.ProductEventSaved, saved)

	return SubmitResult{State: EditStateSaved, Product: saved}, nil
}

// 削除。無いIDは false。
func (u *AdminProductUsecase) Delete(ctx context.Context, adminUserID int64, id int64) (model.Product, bool, error) {
	deleted, err := u.products.DeleteProduct(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}
	u.metrics.ObserveDelete()

	u.audit(ctx, adminUserID, model.AuditActionDeleteProduct, deleted.ID, &deleted, nil)
	u.publish(ctx, model.ProductEventDeleted, deleted)

	return deleted, true, nil
}

// 監査ログ一覧。監査ストアが無ければ空。
func (u *AdminProductUsecase) AuditLogs(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	if u.auditRepo == nil {
		return []model.AuditLog{}, nil
	}
	return u.auditRepo.List(ctx, filter)
}

// 監査ログとイベントはベストエフォート。失敗しても保存は取り消さない。
func (u *AdminProductUsecase) audit(ctx context.Context, actor int64, action model.AuditAction, productID int64, before, after *model.Product) {
	if u.auditRepo == nil {
		return
	}
	entry := model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    u.now(),
	}
	if err := u.auditRepo.Create(ctx, entry); err != nil {
		u.log.ErrorContext(ctx, "audit log write failed", "action", action, "product_id", productID, "error", err)
	}
}

func (u *AdminProductUsecase) publish(ctx context.Context, typ model.ProductEventType, p model.Product) {
	if u.publisher == nil {
		return
	}
	ev := model.ProductEvent{
		ID:         u.newID(),
		Type:       typ,
		ProductID:  p.ID,
		Product:    p,
		OccurredAt: u.now(),
	}
	// ブローカー障害で保存のレスポンスを待たせない
	pctx, cancel := context.WithTimeout(ctx, u.publishTimeout)
	defer cancel()
	if err := u.publisher.Publish(pctx, ev); err != nil {
		u.log.ErrorContext(ctx, "product event publish failed", "type", typ, "product_id", p.ID, "error", err)
	}
}

func toJSON(p *model.Product) string {
	if p == nil {
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}
