package stack

import (
	"context"
	"errors"
	"sync"
)

// fakeBackend is an in-memory Backend. Func fields override the default
// behaviour; every call is appended to Calls.
type fakeBackend struct {
	mu sync.Mutex

	Config       map[string]ConfigValue
	EncryptedKey string
	StackOutputs Outputs

	Calls       []string
	RefreshOpts []RefreshOptions
	PreviewOpts []PreviewOptions

	InstallPluginFunc func(ctx context.Context, name, version string) error
	GetConfigFunc     func(ctx context.Context, key string) (ConfigValue, bool, error)
	SetConfigFunc     func(ctx context.Context, key string, value ConfigValue) error
	RefreshFunc       func(ctx context.Context, opts RefreshOptions) error
	PreviewFunc       func(ctx context.Context, opts PreviewOptions) error
	UpFunc            func(ctx context.Context) (UpResult, error)
	DestroyFunc       func(ctx context.Context) (DestroyResult, error)
	CancelFunc        func(ctx context.Context) error
	OutputsFunc       func(ctx context.Context) (Outputs, error)
	RemoveStackFunc   func(ctx context.Context) error
	SettingsFunc      func(ctx context.Context) (Settings, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		Config:       map[string]ConfigValue{},
		EncryptedKey: "key-a",
		StackOutputs: Outputs{"storage_account_name": "shmacmesresandbox01"},
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

func (f *fakeBackend) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) InstallPlugin(ctx context.Context, name, version string) error {
	f.record("install-plugin")
	if f.InstallPluginFunc != nil {
		return f.InstallPluginFunc(ctx, name, version)
	}
	return nil
}

func (f *fakeBackend) GetConfig(ctx context.Context, key string) (ConfigValue, bool, error) {
	f.record("get-config")
	if f.GetConfigFunc != nil {
		return f.GetConfigFunc(ctx, key)
	}
	v, ok := f.Config[key]
	return v, ok, nil
}

func (f *fakeBackend) SetConfig(ctx context.Context, key string, value ConfigValue) error {
	f.record("set-config")
	if f.SetConfigFunc != nil {
		return f.SetConfigFunc(ctx, key, value)
	}
	f.Config[key] = value
	return nil
}

func (f *fakeBackend) GetAllConfig(_ context.Context) (map[string]ConfigValue, error) {
	f.record("get-all-config")
	out := make(map[string]ConfigValue, len(f.Config))
	for k, v := range f.Config {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBackend) Refresh(ctx context.Context, opts RefreshOptions) error {
	f.record("refresh")
	f.RefreshOpts = append(f.RefreshOpts, opts)
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx, opts)
	}
	return nil
}

func (f *fakeBackend) Preview(ctx context.Context, opts PreviewOptions) error {
	f.record("preview")
	f.PreviewOpts = append(f.PreviewOpts, opts)
	if f.PreviewFunc != nil {
		return f.PreviewFunc(ctx, opts)
	}
	return nil
}

func (f *fakeBackend) Up(ctx context.Context) (UpResult, error) {
	f.record("up")
	if f.UpFunc != nil {
		return f.UpFunc(ctx)
	}
	return UpResult{Summary: Summary{Result: ResultSucceeded}, Outputs: f.StackOutputs}, nil
}

func (f *fakeBackend) Destroy(ctx context.Context) (DestroyResult, error) {
	f.record("destroy")
	if f.DestroyFunc != nil {
		return f.DestroyFunc(ctx)
	}
	return DestroyResult{Summary: Summary{Result: ResultSucceeded}}, nil
}

func (f *fakeBackend) Cancel(ctx context.Context) error {
	f.record("cancel")
	if f.CancelFunc != nil {
		return f.CancelFunc(ctx)
	}
	return nil
}

func (f *fakeBackend) Outputs(ctx context.Context) (Outputs, error) {
	f.record("outputs")
	if f.OutputsFunc != nil {
		return f.OutputsFunc(ctx)
	}
	return f.StackOutputs, nil
}

func (f *fakeBackend) RemoveStack(ctx context.Context) error {
	f.record("remove-stack")
	if f.RemoveStackFunc != nil {
		return f.RemoveStackFunc(ctx)
	}
	return nil
}

func (f *fakeBackend) Settings(ctx context.Context) (Settings, error) {
	f.record("settings")
	if f.SettingsFunc != nil {
		return f.SettingsFunc(ctx)
	}
	return Settings{EncryptedKey: f.EncryptedKey}, nil
}

type fakeWorkspace struct {
	Backend *fakeBackend
	Err     error
	Calls   int
	Env     map[string]string
}

func (w *fakeWorkspace) CreateOrSelect(_ context.Context, _ Identity, env map[string]string) (Backend, error) {
	w.Calls++
	w.Env = env
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Backend, nil
}

type memoryRecords struct {
	Records map[string]*Record
	Puts    int
	Deletes int

	GetErr    error
	PutErr    error
	DeleteErr error
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{Records: map[string]*Record{}}
}

func (m *memoryRecords) Get(_ context.Context, project, stack string) (*Record, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	rec, ok := m.Records[project+"/"+stack]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}

func (m *memoryRecords) Put(_ context.Context, project string, record *Record) error {
	m.Puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	cp := *record
	m.Records[project+"/"+record.StackName] = &cp
	return nil
}

func (m *memoryRecords) Delete(_ context.Context, project, stack string) error {
	m.Deletes++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Records, project+"/"+stack)
	return nil
}

type fakeBlobs struct {
	Objects   map[string]bool
	ExistsErr error
	DeleteErr error
	Deleted   []string
}

func (b *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	if b.ExistsErr != nil {
		return false, b.ExistsErr
	}
	return b.Objects[key], nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	b.Deleted = append(b.Deleted, key)
	delete(b.Objects, key)
	return nil
}

type fakePurger struct {
	Err    error
	Purged []string
}

func (p *fakePurger) PurgeDeleted(_ context.Context, name string) error {
	p.Purged = append(p.Purged, name)
	return p.Err
}

type staticCredentials map[string]string

func (s staticCredentials) Env(_ context.Context) (map[string]string, error) {
	return s, nil
}

type failingCredentials struct{}

func (failingCredentials) Env(_ context.Context) (map[string]string, error) {
	return nil, errors.New("az login required")
}
