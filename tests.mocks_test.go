package main

import (
	"context"
	"net/http"
	"sync"
	"time"
)

var (
	_ BookStorage         = (*MockBookStorage)(nil)
	_ BookServiceProvider = (*MockBookService)(nil)
	_ Queuer              = (*MockQueuer)(nil)
	_ ViewRenderer        = (*MockViewRenderer)(nil)
	_ Clocker             = (*MockClocker)(nil)
	_ UIDHandler          = (*MockUIDHandler)(nil)
)

// MockBookStorage is a mock implementation of BookStorage.
type MockBookStorage struct {
	AddFunc       func(ctx context.Context, book Book) error
	GetOneFunc    func(ctx context.Context, id string) (Book, error)
	GetAllFunc    func(ctx context.Context) ([]Book, error)
	UpdateFunc    func(ctx context.Context, id string, changes BookChanges, updatedAt string) (Book, error)
	AddReviewFunc func(ctx context.Context, id string, review Review, updatedAt string) (Book, error)
	DeleteFunc    func(ctx context.Context, id string) error
}

func (m *MockBookStorage) Add(ctx context.Context, book Book) error {
	return m.AddFunc(ctx, book)
}

func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

func (m *MockBookStorage) Update(ctx context.Context, id string, changes BookChanges, updatedAt string) (Book, error) {
	return m.UpdateFunc(ctx, id, changes, updatedAt)
}

func (m *MockBookStorage) AddReview(ctx context.Context, id string, review Review, updatedAt string) (Book, error) {
	return m.AddReviewFunc(ctx, id, review, updatedAt)
}

func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// MockBookService is a mock implementation of BookServiceProvider.
type MockBookService struct {
	GetAllFunc    func(ctx context.Context) ([]Book, error)
	GetOneFunc    func(ctx context.Context, id string) (Book, error)
	AddFunc       func(ctx context.Context, changes BookChanges) (Book, error)
	UpdateFunc    func(ctx context.Context, id string, changes BookChanges) (Book, error)
	AddReviewFunc func(ctx context.Context, id string, review Review) (Book, error)
	DeleteFunc    func(ctx context.Context, id string) error
}

func (m *MockBookService) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

func (m *MockBookService) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockBookService) Add(ctx context.Context, changes BookChanges) (Book, error) {
	return m.AddFunc(ctx, changes)
}

func (m *MockBookService) Update(ctx context.Context, id string, changes BookChanges) (Book, error) {
	return m.UpdateFunc(ctx, id, changes)
}

func (m *MockBookService) AddReview(ctx context.Context, id string, review Review) (Book, error) {
	return m.AddReviewFunc(ctx, id, review)
}

func (m *MockBookService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// pushed is one book sent to the mock queue.
type pushed struct {
	qid  string
	book Book
}

// MockQueuer records pushed books and serves pops from PopFunc.
type MockQueuer struct {
	mu      sync.Mutex
	pushes  []pushed
	PushErr error
	PopFunc func(ctx context.Context, qids ...string) (string, Book, error)
}

func (m *MockQueuer) Push(_ context.Context, qid string, book Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, pushed{qid: qid, book: book})
	return m.PushErr
}

func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return m.PopFunc(ctx, qids...)
}

func (m *MockQueuer) Pushed() []pushed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pushed(nil), m.pushes...)
}

// MockViewRenderer keeps the last rendered view and writes its name as body.
type MockViewRenderer struct {
	Name   string
	Status int
	Data   *PageData
	Calls  int
	Err    error
}

func (m *MockViewRenderer) Render(w http.ResponseWriter, status int, name string, data *PageData) error {
	m.Calls++
	m.Name, m.Status, m.Data = name, status, data
	if m.Err != nil {
		return m.Err
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(name))
	return err
}

// MockClocker always returns the same time.
type MockClocker struct {
	t time.Time
}

func NewMockClocker() *MockClocker {
	return &MockClocker{t: time.Date(2023, 7, 1, 20, 19, 10, 0, time.UTC)}
}

func (m *MockClocker) Now() time.Time {
	return m.t
}

// MockUIDHandler returns the ids of the list in order and validates any id with the prefix.
type MockUIDHandler struct {
	mu  sync.Mutex
	ids []string
}

func (m *MockUIDHandler) Generate(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ids) == 0 {
		return prefix + ":0"
	}
	id := m.ids[0]
	m.ids = m.ids[1:]
	return id
}

func (m *MockUIDHandler) IsValid(id, prefix string) bool {
	return len(id) > len(prefix)+1 && id[:len(prefix)+1] == prefix+":"
}

// mockReplica records the replicated books.
type mockReplica struct {
	mu      sync.Mutex
	saved   []Book
	deleted []string
}

func (m *mockReplica) Save(_ context.Context, book Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, book)
	return nil
}

func (m *mockReplica) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}
