package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/internal/repository"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/sheet"
)

type complaintStoreStub struct {
	items     []models.Complaint
	warnings  []models.RowWarning
	appended  []models.Complaint
	appendErr error
	loadErr   error
	patchErr  error
	likes     int
	resolved  []string
}

func (s *complaintStoreStub) Append(_ context.Context, c models.Complaint) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, c)
	return nil
}

func (s *complaintStoreStub) LoadAll(context.Context) ([]models.Complaint, []models.RowWarning, error) {
	return s.items, s.warnings, s.loadErr
}

func (s *complaintStoreStub) IncrementLike(context.Context, string) (int, error) {
	if s.patchErr != nil {
		return 0, s.patchErr
	}
	s.likes++
	return s.likes, nil
}

func (s *complaintStoreStub) MarkResolved(_ context.Context, id string) error {
	if s.patchErr != nil {
		return s.patchErr
	}
	s.resolved = append(s.resolved, id)
	return nil
}

type resolverStub struct {
	address string
	calls   int
}

func (r *resolverStub) Resolve(context.Context, models.Coordinates) string {
	r.calls++
	return r.address
}

func floatPtr(v float64) *float64 { return &v }

func validSubmitRequest() dto.SubmitComplaintRequest {
	return dto.SubmitComplaintRequest{
		Title:     "도로 파손",
		Content:   "보도블럭 파손",
		Latitude:  floatPtr(37.5665),
		Longitude: floatPtr(126.9780),
		Category:  string(models.CategoryFacility),
	}
}

func newComplaintServiceForTest(store complaintStore, resolver addressResolver) *ComplaintService {
	svc := NewComplaintService(ComplaintServiceParams{Store: store, Resolver: resolver, Persistent: true})
	svc.now = func() time.Time { return time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC) }
	return svc
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	return appErr.Status
}

func TestComplaintServiceSubmitResolvesAddress(t *testing.T) {
	store := &complaintStoreStub{}
	resolver := &resolverStub{address: "서울특별시 중구 세종대로 110"}
	svc := newComplaintServiceForTest(store, resolver)

	created, err := svc.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)
	require.Len(t, store.appended, 1)
	assert.Equal(t, "서울특별시 중구 세종대로 110", created.Address)
	assert.Equal(t, models.AnonymousAuthor, created.Author)
	assert.Equal(t, models.StatusUnresolved, created.Status)
	assert.Equal(t, "2024-05-17", created.DateString())
	assert.Equal(t, 1, resolver.calls)
}

func TestComplaintServiceSubmitKeepsEditedAddress(t *testing.T) {
	store := &complaintStoreStub{}
	resolver := &resolverStub{address: "ignored"}
	svc := newComplaintServiceForTest(store, resolver)

	req := validSubmitRequest()
	req.Address = "시청 앞 횡단보도"
	req.Date = "2024-04-01"
	created, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "시청 앞 횡단보도", created.Address)
	assert.Equal(t, "2024-04-01", created.DateString())
	assert.Zero(t, resolver.calls)
}

func TestComplaintServiceSubmitValidation(t *testing.T) {
	cases := map[string]func(*dto.SubmitComplaintRequest){
		"missing title":       func(r *dto.SubmitComplaintRequest) { r.Title = "" },
		"whitespace content":  func(r *dto.SubmitComplaintRequest) { r.Content = "   " },
		"missing coordinates": func(r *dto.SubmitComplaintRequest) { r.Latitude = nil },
		"latitude range":      func(r *dto.SubmitComplaintRequest) { r.Latitude = floatPtr(123) },
		"unknown category":    func(r *dto.SubmitComplaintRequest) { r.Category = "불만" },
		"bad date":            func(r *dto.SubmitComplaintRequest) { r.Date = "17/05/2024" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := &complaintStoreStub{}
			svc := newComplaintServiceForTest(store, &resolverStub{})
			req := validSubmitRequest()
			mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
			assert.Empty(t, store.appended)
		})
	}
}

func TestComplaintServiceSubmitStoreFailure(t *testing.T) {
	store := &complaintStoreStub{appendErr: errors.New("connection refused")}
	svc := newComplaintServiceForTest(store, &resolverStub{address: "x"})

	_, err := svc.Submit(context.Background(), validSubmitRequest())
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
}

func TestComplaintServiceListFiltersAndPaginates(t *testing.T) {
	store := &complaintStoreStub{
		items: []models.Complaint{
			{ID: "1", Category: models.CategoryTraffic, Status: models.StatusUnresolved},
			{ID: "2", Category: models.CategorySafety, Status: models.StatusResolved},
			{ID: "3", Category: models.CategoryTraffic, Status: models.StatusResolved},
			{ID: "4", Category: models.CategoryTraffic, Status: models.StatusUnresolved},
		},
		warnings: []models.RowWarning{{Row: 7, Message: "invalid date"}},
	}
	svc := newComplaintServiceForTest(store, nil)

	list, err := svc.List(context.Background(), dto.ComplaintListFilter{Category: "교통 불편", PageSize: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "4", list.Items[0].ID)
	assert.Equal(t, 3, list.Pagination.TotalCount)
	assert.Len(t, list.Warnings, 1)

	list, err = svc.List(context.Background(), dto.ComplaintListFilter{Status: "해결"})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "2", list.Items[0].ID)

	list, err = svc.List(context.Background(), dto.ComplaintListFilter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = svc.List(context.Background(), dto.ComplaintListFilter{Status: "보류"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestComplaintServiceGet(t *testing.T) {
	store := &complaintStoreStub{items: []models.Complaint{{ID: "a"}, {ID: "b"}}}
	svc := newComplaintServiceForTest(store, nil)

	got, err := svc.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	_, err = svc.Get(context.Background(), "zzz")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestComplaintServiceLikeAndResolveErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{models.ErrComplaintNotFound, http.StatusNotFound},
		{repository.ErrPatchConflict, http.StatusConflict},
		{errors.New("timeout"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		store := &complaintStoreStub{patchErr: tc.err}
		svc := newComplaintServiceForTest(store, nil)

		_, err := svc.Like(context.Background(), "x")
		assert.Equal(t, tc.status, statusOf(t, err))
		err = svc.Resolve(context.Background(), "x")
		assert.Equal(t, tc.status, statusOf(t, err))
	}
}

func TestComplaintServiceEndToEndOnMemorySheet(t *testing.T) {
	store := sheet.NewMemoryStore(repository.Header())
	repo := repository.NewComplaintRepository(store, nil, nil)
	svc := newComplaintServiceForTest(repo, &resolverStub{address: models.AddressUnavailable})
	ctx := context.Background()

	created, err := svc.Submit(ctx, validSubmitRequest())
	require.NoError(t, err)

	rows, err := store.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "익명", rows[1][repository.ColumnAuthor])
	assert.Equal(t, "0", rows[1][repository.ColumnLikeCount])
	assert.Equal(t, "미해결", rows[1][repository.ColumnStatus])

	count, err := svc.Like(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, svc.Resolve(ctx, created.ID))
	require.NoError(t, svc.Resolve(ctx, created.ID))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, models.StatusResolved, got.Status)
	assert.Equal(t, models.AddressUnavailable, got.Address)
}
