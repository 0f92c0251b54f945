package usecase_test

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"content-scheduler/domain/model"

	"github.com/stretchr/testify/mock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memStore is an in-memory implementation of the schedule, video, account and publish log stores.
type memStore struct {
	mu        sync.Mutex
	schedules map[int64]*model.Schedule
	videos    map[int64]*model.Video
	accounts  map[int64]*model.Account
	logs      []model.PublishLog

	statusChanges map[int64][]model.VideoStatus
	countErr      error
}

func newMemStore() *memStore {
	return &memStore{
		schedules:     map[int64]*model.Schedule{},
		videos:        map[int64]*model.Video{},
		accounts:      map[int64]*model.Account{},
		statusChanges: map[int64][]model.VideoStatus{},
	}
}

func (m *memStore) addSchedule(s model.Schedule) { m.schedules[s.ID] = &s }
func (m *memStore) addVideo(v model.Video)       { m.videos[v.ID] = &v }
func (m *memStore) addAccount(a model.Account)   { m.accounts[a.ID] = &a }

func (m *memStore) video(id int64) model.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.videos[id]
}

func (m *memStore) account(id int64) model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.accounts[id]
}

func (m *memStore) schedule(id int64) model.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.schedules[id]
}

func (m *memStore) logsFor(videoID int64) []model.PublishLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PublishLog
	for _, l := range m.logs {
		if l.VideoID == videoID {
			out = append(out, l)
		}
	}
	return out
}

// seedSuccessLogs records n successful publishes of videoID at the given instant.
func (m *memStore) seedSuccessLogs(videoID int64, at time.Time, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.logs = append(m.logs, model.PublishLog{
			ID:        int64(len(m.logs) + 1),
			VideoID:   videoID,
			AccountID: 0,
			Status:    model.PublishSuccess,
			CreatedAt: at,
		})
	}
}

func (m *memStore) FindActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Schedule
	for _, s := range m.schedules {
		if s.IsActive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) GetSchedule(ctx context.Context, id int64) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) UpdateScheduleState(ctx context.Context, id int64, state model.ScheduleState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[id].State = state
	return nil
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortedVideos(in []model.Video) []model.Video {
	sort.Slice(in, func(i, j int) bool {
		if in[i].Priority != in[j].Priority {
			return in[i].Priority > in[j].Priority
		}
		if !in[i].CreatedAt.Equal(in[j].CreatedAt) {
			return in[i].CreatedAt.Before(in[j].CreatedAt)
		}
		return in[i].ID < in[j].ID
	})
	return in
}

func (m *memStore) FindPendingVideos(ctx context.Context, f model.VideoFilter) ([]model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Video
	for _, v := range m.videos {
		if v.UserID != f.UserID || !v.IsCandidate(f.Now) {
			continue
		}
		if f.CategoryID != nil && !sameCategory(v.CategoryID, f.CategoryID) {
			continue
		}
		out = append(out, *v)
	}
	out = sortedVideos(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) FindUnscheduledVideos(ctx context.Context, now time.Time, limit int) ([]model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Video
	for _, v := range m.videos {
		if !v.IsCandidate(now) {
			continue
		}
		covered := false
		for _, s := range m.schedules {
			if s.IsActive && s.UserID == v.UserID && (s.CategoryID == nil || sameCategory(s.CategoryID, v.CategoryID)) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, *v)
		}
	}
	out = sortedVideos(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpdateVideoStatus(ctx context.Context, id int64, status model.VideoStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[id].Status = status
	m.statusChanges[id] = append(m.statusChanges[id], status)
	return nil
}

func (m *memStore) FindActiveAccounts(ctx context.Context, userID int64, ids []int64) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Account
	for _, a := range m.accounts {
		if !a.IsActive || a.UserID != userID {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, a.ID) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) FindAccountsNeedingRefresh(ctx context.Context, before time.Time) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Account
	for _, a := range m.accounts {
		if a.IsActive && a.RefreshToken != "" && a.TokenExpiresAt != nil && a.TokenExpiresAt.Before(before) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) UpsertConnectedAccount(ctx context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.UserID == a.UserID && existing.Platform == a.Platform && existing.ExternalUserID == a.ExternalUserID {
			a.ID = existing.ID
			break
		}
	}
	if a.ID == 0 {
		a.ID = int64(len(m.accounts) + 1)
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memStore) UpdateAccountToken(ctx context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.accounts[a.ID]
	cur.AccessToken = a.AccessToken
	cur.RefreshToken = a.RefreshToken
	cur.TokenExpiresAt = a.TokenExpiresAt
	cur.ErrorCount = a.ErrorCount
	cur.LastError = a.LastError
	return nil
}

func (m *memStore) UpdateAccountPublishState(ctx context.Context, id int64, st model.AccountPublishState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.accounts[id]
	cur.LastPublishAt = st.LastPublishAt
	cur.ErrorCount = st.ErrorCount
	cur.LastError = st.LastError
	cur.IsActive = st.IsActive
	return nil
}

func (m *memStore) InsertPublishLog(ctx context.Context, l *model.PublishLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memStore) CountPublishLogs(ctx context.Context, f model.PublishLogFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, l := range m.logs {
		v, ok := m.videos[l.VideoID]
		if !ok || v.UserID != f.UserID || l.Status != f.Status {
			continue
		}
		if f.CategoryID != nil && !sameCategory(v.CategoryID, f.CategoryID) {
			continue
		}
		if l.CreatedAt.Before(f.From) || (!f.To.IsZero() && !l.CreatedAt.Before(f.To)) {
			continue
		}
		n++
	}
	return n, nil
}

// mockPublisher is a testify mock of a platform client.
type mockPublisher struct {
	mock.Mock
	platform string
}

func newMockPublisher(platform string) *mockPublisher { return &mockPublisher{platform: platform} }

func (p *mockPublisher) Platform() string { return p.platform }

func (p *mockPublisher) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	args := p.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenGrant), args.Error(1)
}

func (p *mockPublisher) UploadVideo(ctx context.Context, accessToken string, req model.UploadRequest) (*model.UploadResult, error) {
	args := p.Called(ctx, accessToken, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

// mockConnector adds the OAuth connect flow to mockPublisher.
type mockConnector struct {
	*mockPublisher
}

func (c mockConnector) AuthURL(state string) string {
	return "https://auth.example/authorize?state=" + state
}

func (c mockConnector) ExchangeCode(ctx context.Context, code string) (*model.TokenGrant, error) {
	args := c.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenGrant), args.Error(1)
}

func (c mockConnector) FetchProfile(ctx context.Context, accessToken string) (*model.PlatformProfile, error) {
	args := c.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformProfile), args.Error(1)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.PublishEvent
	err    error
}

func (n *recordingNotifier) PublishEvent(ctx context.Context, e model.PublishEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func uploadOK(externalID string) *model.UploadResult {
	raw, _ := json.Marshal(map[string]string{"publish_id": externalID})
	return &model.UploadResult{ExternalVideoID: externalID, Raw: raw}
}

func ptr[T any](v T) *T { return &v }
