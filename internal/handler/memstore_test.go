package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/planner/internal/model"
	"github.com/hitoshi/planner/internal/repository"
)

// memStore はルーター統合テスト用のインメモリ永続化層。
// 所有者による絞り込みと「存在しない・他人の行はnil」の規則をPostgres実装と揃えている。
type memStore struct {
	mu          sync.Mutex
	seq         int
	users       map[string]*model.User
	sessions    map[string]*model.Session
	categories  map[string]*model.Category
	tasks       map[string]*model.Task
	order       map[string]int // ID -> 作成順
	provisioned map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*model.User),
		sessions:    make(map[string]*model.Session),
		categories:  make(map[string]*model.Category),
		tasks:       make(map[string]*model.Task),
		order:       make(map[string]int),
		provisioned: make(map[string]bool),
	}
}

func (s *memStore) nextID() string {
	s.seq++
	id := uuid.New().String()
	s.order[id] = s.seq
	return id
}

// newestFirst はIDを作成順の新しい順に並べる。
func (s *memStore) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] > s.order[ids[j]] })
}

type memUsers struct{ *memStore }

func (m memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m memUsers) UpdateProfile(_ context.Context, id string, patch model.ProfilePatch) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if patch.FirstName.Set {
		u.FirstName = patch.FirstName.Ptr()
	}
	if patch.LastName.Set {
		u.LastName = patch.LastName.Ptr()
	}
	if patch.ProfileImageURL.Set {
		u.ProfileImageURL = patch.ProfileImageURL.Ptr()
	}
	u.UpdatedAt = time.Now().UTC()
	c := *u
	return &c, nil
}

type memSessions struct{ *memStore }

func (m memSessions) Create(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *session
	m.sessions[session.ID] = &c
	return nil
}

func (m memSessions) FindByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Expired(time.Now()) {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (m memSessions) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type memCategories struct{ *memStore }

func (m memCategories) ListByUser(_ context.Context, userID string) ([]*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, c := range m.categories {
		if c.UserID == userID {
			ids = append(ids, id)
		}
	}
	m.newestFirst(ids)
	out := make([]*model.Category, 0, len(ids))
	for _, id := range ids {
		c := *m.categories[id]
		out = append(out, &c)
	}
	return out, nil
}

func (m memCategories) Create(_ context.Context, userID string, in model.CategoryInput) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(userID, in), nil
}

func (m memCategories) insert(userID string, in model.CategoryInput) *model.Category {
	now := time.Now().UTC()
	c := &model.Category{
		ID: m.nextID(), UserID: userID,
		Name: in.Name, Emoji: in.Emoji, Color: in.Color,
		CreatedAt: now, UpdatedAt: now,
	}
	m.categories[c.ID] = c
	out := *c
	return &out
}

func (m memCategories) Update(_ context.Context, id, userID string, patch model.CategoryPatch) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Emoji != nil {
		c.Emoji = *patch.Emoji
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	c.UpdatedAt = time.Now().UTC()
	out := *c
	return &out, nil
}

func (m memCategories) Delete(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	for _, t := range m.tasks {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
		}
	}
	delete(m.categories, id)
	return true, nil
}

func (m memCategories) ProvisionDefaults(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.provisioned[userID] {
		return false, nil
	}
	m.provisioned[userID] = true
	for _, d := range model.DefaultCategories {
		m.insert(userID, d)
	}
	return true, nil
}

type memTasks struct{ *memStore }

// view はカテゴリの表示用フィールドを結合したコピーを返す。
func (m memTasks) view(t *model.Task) *model.Task {
	out := *t
	out.Category = nil
	if t.CategoryID != nil {
		if c, ok := m.categories[*t.CategoryID]; ok {
			out.Category = &model.CategorySummary{ID: c.ID, Name: c.Name, Emoji: c.Emoji, Color: c.Color}
		}
	}
	return &out
}

func (m memTasks) ownsCategory(userID string, id *string) bool {
	if id == nil {
		return true
	}
	c, ok := m.categories[*id]
	return ok && c.UserID == userID
}

func (m memTasks) ListByUser(_ context.Context, userID string, date *string) ([]*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, t := range m.tasks {
		if t.UserID == userID && (date == nil || t.Date == *date) {
			ids = append(ids, id)
		}
	}
	m.newestFirst(ids)
	out := make([]*model.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.view(m.tasks[id]))
	}
	return out, nil
}

func (m memTasks) Create(_ context.Context, userID string, in model.TaskInput) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ownsCategory(userID, in.CategoryID) {
		return nil, repository.ErrCategoryNotOwned
	}
	now := time.Now().UTC()
	t := &model.Task{
		ID: m.nextID(), UserID: userID,
		Date: in.Date, Text: in.Text, Completed: in.Completed,
		CategoryID: in.CategoryID, DueTime: in.DueTime, Notes: in.Notes,
		CreatedAt: now, UpdatedAt: now,
	}
	m.tasks[t.ID] = t
	return m.view(t), nil
}

func (m memTasks) Update(_ context.Context, id, userID string, patch model.TaskPatch) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	if patch.CategoryID.Valid && !m.ownsCategory(userID, &patch.CategoryID.Value) {
		return nil, repository.ErrCategoryNotOwned
	}
	if patch.Text != nil {
		t.Text = *patch.Text
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.CategoryID.Set {
		t.CategoryID = patch.CategoryID.Ptr()
	}
	if patch.DueTime.Set {
		t.DueTime = patch.DueTime.Ptr()
	}
	if patch.Notes.Set {
		t.Notes = patch.Notes.Ptr()
	}
	t.UpdatedAt = time.Now().UTC()
	return m.view(t), nil
}

func (m memTasks) ToggleComplete(_ context.Context, id, userID string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	t.Completed = !t.Completed
	t.UpdatedAt = time.Now().UTC()
	return m.view(t), nil
}

func (m memTasks) Delete(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(m.tasks, id)
	return true, nil
}

var (
	_ repository.UserRepository     = memUsers{}
	_ repository.SessionRepository  = memSessions{}
	_ repository.CategoryRepository = memCategories{}
	_ repository.TaskRepository     = memTasks{}
)
