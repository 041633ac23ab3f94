package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"
	"catalog/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Index / BeginEdit
// =====================

func TestAdminProductUsecase_Index_ContainsAllProducts(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("Products", mock.Anything).Return(productsN(3), nil)

	uc := usecase.NewAdminProductUsecase(pRepo)

	got, err := uc.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2", "P3"}, names(got))
}

func TestAdminProductUsecase_BeginEdit_Found(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("Products", mock.Anything).Return(productsN(3), nil)

	uc := usecase.NewAdminProductUsecase(pRepo)

	for _, id := range []int64{1, 2, 3} {
		p, ok, err := uc.BeginEdit(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, id, p.ID)
	}
}

func TestAdminProductUsecase_BeginEdit_NotFound(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("Products", mock.Anything).Return(productsN(3), nil)

	uc := usecase.NewAdminProductUsecase(pRepo)

	p, ok, err := uc.BeginEdit(context.Background(), 4)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.Product{}, p)
}

func TestAdminProductUsecase_BeginEdit_StorageUnavailable(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("Products", mock.Anything).Return(nil, storageDown())

	uc := usecase.NewAdminProductUsecase(pRepo)

	_, ok, err := uc.BeginEdit(context.Background(), 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
}

func TestAdminProductUsecase_BeginCreate(t *testing.T) {
	uc := usecase.NewAdminProductUsecase(new(ProductRepoMock))
	assert.True(t, uc.BeginCreate().IsNew())
}

// =====================
// SubmitEdit
// =====================

func TestAdminProductUsecase_SubmitEdit_SavesValidChanges(t *testing.T) {
	pRepo := new(ProductRepoMock)
	candidate := model.Product{Name: "Test"}
	pRepo.On("SaveProduct", mock.Anything, candidate).Return(model.Product{ID: 7, Name: "Test"}, nil).Once()

	uc := usecase.NewAdminProductUsecase(pRepo)

	res, err := uc.SubmitEdit(context.Background(), 1, candidate, usecase.ValidationResult{})
	require.NoError(t, err)

	assert.Equal(t, usecase.EditStateSaved, res.State)
	assert.True(t, res.Saved())
	assert.Equal(t, usecase.EditStateListing, res.Next())
	assert.Equal(t, "Test", res.Product.Name)
	assert.Equal(t, int64(7), res.Product.ID)

	pRepo.AssertNumberOfCalls(t, "SaveProduct", 1)
	pRepo.AssertExpectations(t)
}

func TestAdminProductUsecase_SubmitEdit_NilValidationIsValid(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("SaveProduct", mock.Anything, mock.Anything).Return(model.Product{ID: 1, Name: "Test"}, nil)

	uc := usecase.NewAdminProductUsecase(pRepo)

	res, err := uc.SubmitEdit(context.Background(), 1, model.Product{Name: "Test"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Saved())
	pRepo.AssertNumberOfCalls(t, "SaveProduct", 1)
}

func TestAdminProductUsecase_SubmitEdit_RejectsInvalidChanges(t *testing.T) {
	pRepo := new(ProductRepoMock)
	uc := usecase.NewAdminProductUsecase(pRepo)

	candidate := model.Product{Name: "Test"}
	validation := usecase.ValidationResult{"error": "error"}

	res, err := uc.SubmitEdit(context.Background(), 1, candidate, validation)
	require.NoError(t, err)

	assert.Equal(t, usecase.EditStateRejectedInvalid, res.State)
	assert.Equal(t, usecase.EditStateEditing, res.Next())
	// 未保存の入力はそのまま返す
	assert.Equal(t, candidate, res.Product)
	assert.Equal(t, validation, res.Errors)

	pRepo.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything)
	pRepo.AssertNumberOfCalls(t, "SaveProduct", 0)
}

func TestAdminProductUsecase_SubmitEdit_StorageFailurePropagates(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("SaveProduct", mock.Anything, mock.Anything).Return(model.Product{}, storageDown()).Once()

	pub := new(PublisherMock)
	uc := usecase.NewAdminProductUsecase(pRepo, usecase.WithEventPublisher(pub))

	_, err := uc.SubmitEdit(context.Background(), 1, model.Product{Name: "Test"}, usecase.ValidationResult{})
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)

	// リトライしない
	pRepo.AssertNumberOfCalls(t, "SaveProduct", 1)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAdminProductUsecase_SubmitEdit_AuditAndEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	before := model.Product{ID: 5, Name: "Old", Price: decimal.NewFromInt(10), Category: "Chess"}
	after := model.Product{ID: 5, Name: "New", Price: decimal.NewFromInt(12), Category: "Chess"}

	fRepo := new(FinderRepoMock)
	fRepo.On("FindProduct", mock.Anything, int64(5)).Return(before, nil)
	fRepo.On("SaveProduct", mock.Anything, after).Return(after, nil).Once()

	aRepo := new(AuditRepoMock)
	aRepo.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 9 &&
			l.Action == model.AuditActionSaveProduct &&
			l.ResourceType == model.AuditResourceProduct &&
			l.ResourceID == 5 &&
			l.BeforeJSON != "" && l.AfterJSON != "" &&
			l.CreatedAt.Equal(now)
	})).Return(nil)

	pub := new(PublisherMock)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev model.ProductEvent) bool {
		return ev.Type == model.ProductEventSaved && ev.ProductID == 5 && ev.ID != "" && ev.Product.Name == "New"
	})).Return(nil)

	uc := usecase.NewAdminProductUsecase(fRepo,
		usecase.WithAuditLog(aRepo),
		usecase.WithEventPublisher(pub),
		usecase.WithClock(func() time.Time { return now }),
	)

	res, err := uc.SubmitEdit(ctx, 9, after, usecase.ValidationResult{})
	require.NoError(t, err)
	assert.True(t, res.Saved())

	fRepo.AssertExpectations(t)
	aRepo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestAdminProductUsecase_SubmitEdit_SideEffectFailuresDoNotFailSave(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("SaveProduct", mock.Anything, mock.Anything).Return(model.Product{ID: 1, Name: "Test"}, nil)

	aRepo := new(AuditRepoMock)
	aRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("audit down"))

	pub := new(PublisherMock)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	uc := usecase.NewAdminProductUsecase(pRepo, usecase.WithAuditLog(aRepo), usecase.WithEventPublisher(pub))

	res, err := uc.SubmitEdit(context.Background(), 1, model.Product{Name: "Test"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Saved())
	pRepo.AssertNumberOfCalls(t, "SaveProduct", 1)
}

// 応答しないブローカーの代わり。ctx が切れるまで返らない。
type stuckPublisher struct{}

func (stuckPublisher) Publish(ctx context.Context, _ model.ProductEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestAdminProductUsecase_SubmitEdit_PublishIsBounded(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("SaveProduct", mock.Anything, mock.Anything).Return(model.Product{ID: 1, Name: "Test"}, nil)

	uc := usecase.NewAdminProductUsecase(pRepo,
		usecase.WithEventPublisher(stuckPublisher{}),
		usecase.WithPublishTimeout(20*time.Millisecond),
	)

	start := time.Now()
	res, err := uc.SubmitEdit(context.Background(), 1, model.Product{Name: "Test"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Saved())
	assert.Less(t, time.Since(start), time.Second)
}

func TestAdminProductUsecase_SubmitEdit_PublishHasDeadline(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("SaveProduct", mock.Anything, mock.Anything).Return(model.Product{ID: 1, Name: "Test"}, nil)

	pub := new(PublisherMock)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 2*time.Second
	}), mock.Anything).Return(nil).Once()

	uc := usecase.NewAdminProductUsecase(pRepo, usecase.WithEventPublisher(pub))

	_, err := uc.SubmitEdit(context.Background(), 1, model.Product{Name: "Test"}, nil)
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

// =====================
// Delete
// =====================

func TestAdminProductUsecase_Delete(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("DeleteProduct", mock.Anything, int64(2)).Return(product(2, "P2", "Cat"), nil).Once()
	pRepo.On("DeleteProduct", mock.Anything, int64(2)).Return(model.Product{}, repo.ErrNotFound)

	pub := new(PublisherMock)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev model.ProductEvent) bool {
		return ev.Type == model.ProductEventDeleted && ev.ProductID == 2
	})).Return(nil).Once()

	uc := usecase.NewAdminProductUsecase(pRepo, usecase.WithEventPublisher(pub))

	p, ok, err := uc.Delete(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "P2", p.Name)

	// 2回目は not found（エラーではない）
	_, ok, err = uc.Delete(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	pub.AssertExpectations(t)
}

func TestAdminProductUsecase_Delete_StorageUnavailable(t *testing.T) {
	pRepo := new(ProductRepoMock)
	pRepo.On("DeleteProduct", mock.Anything, int64(2)).Return(model.Product{}, storageDown())

	uc := usecase.NewAdminProductUsecase(pRepo)

	_, _, err := uc.Delete(context.Background(), 1, 2)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
}

// =====================
// AuditLogs
// =====================

func TestAdminProductUsecase_AuditLogs_WithoutRepository(t *testing.T) {
	uc := usecase.NewAdminProductUsecase(new(ProductRepoMock))

	logs, err := uc.AuditLogs(context.Background(), repo.AuditLogFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAdminProductUsecase_AuditLogs(t *testing.T) {
	aRepo := new(AuditRepoMock)
	filter := repo.AuditLogFilter{ResourceID: 3, Limit: 10}
	aRepo.On("List", mock.Anything, filter).Return([]model.AuditLog{{ID: 1, ResourceID: 3}}, nil)

	uc := usecase.NewAdminProductUsecase(new(ProductRepoMock), usecase.WithAuditLog(aRepo))

	logs, err := uc.AuditLogs(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	aRepo.AssertExpectations(t)
}
