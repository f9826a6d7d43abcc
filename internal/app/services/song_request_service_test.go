package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/app/repositories"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
)

var fixedNow = time.Date(2025, 4, 23, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// fakeAdmissionTx records which checks ran and in what order.
type fakeAdmissionTx struct {
	recent      int64
	active      bool
	outstanding int64

	calls    []string
	inserted *models.SongRequest
}

func (f *fakeAdmissionTx) CountRecent(ctx context.Context, userID int64, since time.Time) (int64, error) {
	f.calls = append(f.calls, "cooldown")
	return f.recent, nil
}

func (f *fakeAdmissionTx) TrackActive(ctx context.Context, songID string) (bool, error) {
	f.calls = append(f.calls, "duplicate")
	return f.active, nil
}

func (f *fakeAdmissionTx) CountOutstanding(ctx context.Context, userID int64) (int64, error) {
	f.calls = append(f.calls, "quota")
	return f.outstanding, nil
}

func (f *fakeAdmissionTx) Insert(ctx context.Context, request *models.SongRequest) error {
	f.calls = append(f.calls, "insert")
	request.ID = 42
	f.inserted = request
	return nil
}

type fakeRequestStore struct {
	tx *fakeAdmissionTx

	byUser   []models.SongRequest
	listRows []repositories.AdminSongListRow
	byID     map[int64]*models.SongRequest
	queue    []repositories.QueueRow

	reviewUpdated bool
	playedUpdated bool

	reviewCalls int
	playedCalls int
}

func (f *fakeRequestStore) Admit(ctx context.Context, userID int64, songID string, fn func(ctx context.Context, tx repositories.AdmissionTx) error) error {
	return fn(ctx, f.tx)
}

func (f *fakeRequestStore) GetByUser(ctx context.Context, userID int64, statuses []models.RequestStatus) ([]models.SongRequest, error) {
	return f.byUser, nil
}

func (f *fakeRequestStore) ListByStatus(ctx context.Context, status models.RequestStatus) ([]repositories.AdminSongListRow, error) {
	return f.listRows, nil
}

func (f *fakeRequestStore) GetByID(ctx context.Context, id int64) (*models.SongRequest, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, apperrors.ErrRequestNotFound
}

func (f *fakeRequestStore) Review(ctx context.Context, id int64, decision models.RequestStatus, reason string, reviewerID int64, now time.Time) (bool, error) {
	f.reviewCalls++
	if f.reviewUpdated {
		if r, ok := f.byID[id]; ok {
			r.Status = decision
			r.ReviewTime = &now
			r.ReviewReason = &reason
			r.ReviewerID = &reviewerID
		}
	}
	return f.reviewUpdated, nil
}

func (f *fakeRequestStore) MarkPlayed(ctx context.Context, id int64, now time.Time) (bool, error) {
	f.playedCalls++
	if f.playedUpdated {
		if r, ok := f.byID[id]; ok {
			r.Status = models.StatusPlayed
		}
	}
	return f.playedUpdated, nil
}

func (f *fakeRequestStore) Queue(ctx context.Context) ([]repositories.QueueRow, error) {
	return f.queue, nil
}

type fakeUserStore struct {
	byOpenID  map[string]*models.User
	byStudent map[string]*models.User

	// afterLookup fires between the enrollment lookup and the bind write,
	// standing in for a concurrently committing writer.
	afterLookup func()

	bindCalls int
	bindErr   error

	boundUserID int64
	boundOpenID string
}

func (f *fakeUserStore) GetByOpenID(ctx context.Context, openid string) (*models.User, error) {
	if u, ok := f.byOpenID[openid]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

// GetByStudentIDAndName returns a snapshot, as a real query scan would.
func (f *fakeUserStore) GetByStudentIDAndName(ctx context.Context, studentID, name string) (*models.User, error) {
	u, ok := f.byStudent[studentID+"|"+name]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	snapshot := *u
	if f.afterLookup != nil {
		f.afterLookup()
	}
	return &snapshot, nil
}

// Bind mirrors the repository's conditional update: the write only lands
// while the row is unbound or already carries the same openid.
func (f *fakeUserStore) Bind(ctx context.Context, userID int64, openid string, now time.Time) error {
	f.bindCalls++
	if f.bindErr != nil {
		return f.bindErr
	}
	for _, u := range f.byStudent {
		if u.ID != userID {
			continue
		}
		if u.WechatOpenID != nil && *u.WechatOpenID != openid {
			return apperrors.ErrConflict
		}
		u.WechatOpenID = strPtr(openid)
		u.BindTime = &now
	}
	f.boundUserID = userID
	f.boundOpenID = openid
	return nil
}

func newRequestService(store *fakeRequestStore, users *fakeUserStore, adminOpenIDs ...string) *songRequestService {
	allow := map[string]bool{}
	for _, id := range adminOpenIDs {
		allow[id] = true
	}
	return &songRequestService{
		requests:      store,
		users:         users,
		isAdminOpenID: func(openid string) bool { return allow[openid] },
		now:           func() time.Time { return fixedNow },
	}
}

func boundUser(id int64, openid string) *models.User {
	return &models.User{ID: id, WechatOpenID: strPtr(openid), StudentID: "20230001", Name: "student"}
}

func TestSubmitAdmissionPolicy(t *testing.T) {
	tests := []struct {
		name      string
		tx        *fakeAdmissionTx
		openid    string
		admin     bool
		wantErr   error
		wantCalls []string
	}{
		{
			name:      "accepted when all checks pass",
			tx:        &fakeAdmissionTx{},
			wantCalls: []string{"cooldown", "duplicate", "quota", "insert"},
		},
		{
			name:      "cooldown rejects before duplicate",
			tx:        &fakeAdmissionTx{recent: 1, active: true},
			wantErr:   apperrors.ErrCooldownActive,
			wantCalls: []string{"cooldown"},
		},
		{
			name:      "duplicate track rejected",
			tx:        &fakeAdmissionTx{active: true},
			wantErr:   apperrors.ErrDuplicateRequest,
			wantCalls: []string{"cooldown", "duplicate"},
		},
		{
			name:      "quota of three outstanding rejected",
			tx:        &fakeAdmissionTx{outstanding: 3},
			wantErr:   apperrors.ErrQuotaExceeded,
			wantCalls: []string{"cooldown", "duplicate", "quota"},
		},
		{
			name:      "admin bypasses cooldown and quota",
			tx:        &fakeAdmissionTx{recent: 5, outstanding: 10},
			admin:     true,
			wantCalls: []string{"duplicate", "insert"},
		},
		{
			name:      "admin still blocked by duplicate track",
			tx:        &fakeAdmissionTx{active: true},
			admin:     true,
			wantErr:   apperrors.ErrDuplicateRequest,
			wantCalls: []string{"duplicate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{byOpenID: map[string]*models.User{
				"openid-1": boundUser(7, "openid-1"),
			}}
			store := &fakeRequestStore{tx: tt.tx}

			var svc *songRequestService
			if tt.admin {
				svc = newRequestService(store, users, "openid-1")
			} else {
				svc = newRequestService(store, users)
			}

			created, err := svc.Submit(context.Background(), "openid-1", "song-9", "Test Song")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
			}

			if len(tt.tx.calls) != len(tt.wantCalls) {
				t.Fatalf("checks ran = %v, want %v", tt.tx.calls, tt.wantCalls)
			}
			for i := range tt.wantCalls {
				if tt.tx.calls[i] != tt.wantCalls[i] {
					t.Fatalf("checks ran = %v, want %v", tt.tx.calls, tt.wantCalls)
				}
			}

			if tt.wantErr != nil {
				if tt.tx.inserted != nil {
					t.Fatal("rejected submission must not insert a row")
				}
				return
			}
			if created == nil || created.Status != models.StatusPending {
				t.Fatalf("created = %+v, want pending request", created)
			}
			if !created.RequestTime.Equal(fixedNow) {
				t.Fatalf("RequestTime = %v, want %v", created.RequestTime, fixedNow)
			}
			if created.UserID != 7 || created.SongID != "song-9" {
				t.Fatalf("created = %+v, want userID 7 songID song-9", created)
			}
		})
	}
}

func TestSubmitRequiresBoundUser(t *testing.T) {
	svc := newRequestService(&fakeRequestStore{tx: &fakeAdmissionTx{}}, &fakeUserStore{byOpenID: map[string]*models.User{}})

	_, err := svc.Submit(context.Background(), "ghost", "song-1", "Song")
	if !errors.Is(err, apperrors.ErrUserNotBound) {
		t.Fatalf("Submit() error = %v, want ErrUserNotBound", err)
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	svc := newRequestService(&fakeRequestStore{tx: &fakeAdmissionTx{}}, &fakeUserStore{byOpenID: map[string]*models.User{
		"openid-1": boundUser(1, "openid-1"),
	}})

	if _, err := svc.Submit(context.Background(), "openid-1", "", "Song"); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("Submit() with empty song id error = %v, want ErrValidationFailed", err)
	}
}

func TestReview(t *testing.T) {
	pending := func() map[int64]*models.SongRequest {
		return map[int64]*models.SongRequest{
			5: {ID: 5, UserID: 7, SongID: "song-9", Status: models.StatusPending, RequestTime: fixedNow},
		}
	}

	t.Run("approve succeeds", func(t *testing.T) {
		store := &fakeRequestStore{byID: pending(), reviewUpdated: true}
		svc := newRequestService(store, &fakeUserStore{})

		updated, err := svc.Review(context.Background(), 5, "approved", "nice song", 3)
		if err != nil {
			t.Fatalf("Review() error = %v", err)
		}
		if updated.Status != models.StatusApproved {
			t.Fatalf("Status = %v, want approved", updated.Status)
		}
		if updated.ReviewerID == nil || *updated.ReviewerID != 3 {
			t.Fatalf("ReviewerID = %v, want 3", updated.ReviewerID)
		}
		if updated.ReviewTime == nil || !updated.ReviewTime.Equal(fixedNow) {
			t.Fatalf("ReviewTime = %v, want %v", updated.ReviewTime, fixedNow)
		}
	})

	t.Run("invalid decision rejected without touching the store", func(t *testing.T) {
		store := &fakeRequestStore{byID: pending(), reviewUpdated: true}
		svc := newRequestService(store, &fakeUserStore{})

		for _, decision := range []string{"played", "pending", "APPROVED", "bogus", ""} {
			if _, err := svc.Review(context.Background(), 5, decision, "", 3); !errors.Is(err, apperrors.ErrInvalidDecision) {
				t.Fatalf("Review(%q) error = %v, want ErrInvalidDecision", decision, err)
			}
		}
		if store.reviewCalls != 0 {
			t.Fatalf("reviewCalls = %d, want 0", store.reviewCalls)
		}
	})

	t.Run("unknown request id", func(t *testing.T) {
		store := &fakeRequestStore{byID: map[int64]*models.SongRequest{}}
		svc := newRequestService(store, &fakeUserStore{})

		if _, err := svc.Review(context.Background(), 99, "approved", "", 3); !errors.Is(err, apperrors.ErrRequestNotFound) {
			t.Fatalf("Review() error = %v, want ErrRequestNotFound", err)
		}
	})

	t.Run("second review of the same request fails", func(t *testing.T) {
		reviewed := map[int64]*models.SongRequest{
			5: {ID: 5, Status: models.StatusApproved},
		}
		store := &fakeRequestStore{byID: reviewed, reviewUpdated: false}
		svc := newRequestService(store, &fakeUserStore{})

		if _, err := svc.Review(context.Background(), 5, "rejected", "", 3); !errors.Is(err, apperrors.ErrAlreadyReviewed) {
			t.Fatalf("Review() error = %v, want ErrAlreadyReviewed", err)
		}
	})
}

func TestMarkPlayed(t *testing.T) {
	t.Run("approved request transitions to played", func(t *testing.T) {
		store := &fakeRequestStore{
			byID:          map[int64]*models.SongRequest{5: {ID: 5, Status: models.StatusApproved}},
			playedUpdated: true,
		}
		svc := newRequestService(store, &fakeUserStore{})

		if err := svc.MarkPlayed(context.Background(), 5); err != nil {
			t.Fatalf("MarkPlayed() error = %v", err)
		}
		if store.byID[5].Status != models.StatusPlayed {
			t.Fatalf("Status = %v, want played", store.byID[5].Status)
		}
	})

	t.Run("unknown request id", func(t *testing.T) {
		store := &fakeRequestStore{byID: map[int64]*models.SongRequest{}}
		svc := newRequestService(store, &fakeUserStore{})

		if err := svc.MarkPlayed(context.Background(), 99); !errors.Is(err, apperrors.ErrRequestNotFound) {
			t.Fatalf("MarkPlayed() error = %v, want ErrRequestNotFound", err)
		}
	})

	t.Run("pending request cannot be played", func(t *testing.T) {
		store := &fakeRequestStore{
			byID: map[int64]*models.SongRequest{5: {ID: 5, Status: models.StatusPending}},
		}
		svc := newRequestService(store, &fakeUserStore{})

		if err := svc.MarkPlayed(context.Background(), 5); !errors.Is(err, apperrors.ErrRequestNotApproved) {
			t.Fatalf("MarkPlayed() error = %v, want ErrRequestNotApproved", err)
		}
	})
}

func TestListByStatus(t *testing.T) {
	rows := []repositories.AdminSongListRow{{ID: 1, SongName: "First"}}
	store := &fakeRequestStore{listRows: rows}
	svc := newRequestService(store, &fakeUserStore{})

	got, err := svc.ListByStatus(context.Background(), "pending")
	if err != nil {
		t.Fatalf("ListByStatus() error = %v", err)
	}
	if len(got) != 1 || got[0].SongName != "First" {
		t.Fatalf("ListByStatus() = %+v, want the stored rows", got)
	}

	for _, status := range []string{"", "bogus", "Pending", "APPROVED"} {
		if _, err := svc.ListByStatus(context.Background(), status); !errors.Is(err, apperrors.ErrInvalidStatus) {
			t.Fatalf("ListByStatus(%q) error = %v, want ErrInvalidStatus", status, err)
		}
	}
}

func TestListForUser(t *testing.T) {
	store := &fakeRequestStore{byUser: []models.SongRequest{{ID: 2, SongName: "Mine"}}}
	users := &fakeUserStore{byOpenID: map[string]*models.User{
		"openid-1": boundUser(7, "openid-1"),
	}}
	svc := newRequestService(store, users)

	got, err := svc.ListForUser(context.Background(), "openid-1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(got) != 1 || got[0].SongName != "Mine" {
		t.Fatalf("ListForUser() = %+v", got)
	}

	if _, err := svc.ListForUser(context.Background(), "ghost"); !errors.Is(err, apperrors.ErrUserNotBound) {
		t.Fatalf("ListForUser() error = %v, want ErrUserNotBound", err)
	}
}
