package service

// Тесты Sync Controller (internal/service).
//
//  Проверяем:
//  - локальную валидацию без сетевых вызовов (текст, автор, вложения, причина жалобы);
//  - перезагрузку страницы 1 и счётчика ровно один раз после успешной записи;
//  - отбрасывание параллельной загрузки и снятие loading по таймауту;
//  - маппинг ошибок бэкенда в ErrLoadFailed/ErrSubmitFailed/ErrDeleteFailed/ErrReportFailed;
//  - отсутствие гонок при параллельных мутациях.
//
// Подготовка окружения:
//   mockgen -source=./internal/backend/backend.go -destination=./mocks/backend.go -package=mocks
//   go test ./internal/service -v -race -count=1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/comments-engine/internal/attachments"
	"github.com/pribylovaa/comments-engine/internal/backend"
	"github.com/pribylovaa/comments-engine/internal/composition"
	"github.com/pribylovaa/comments-engine/internal/config"
	"github.com/pribylovaa/comments-engine/internal/metrics"
	"github.com/pribylovaa/comments-engine/internal/models"
	"github.com/pribylovaa/comments-engine/internal/thread"
	"github.com/pribylovaa/comments-engine/mocks"
)

const threadID = "task-7"

func testConfig() config.Config {
	var cfg config.Config
	cfg.Backend.Ordering = "-created_at"
	cfg.Backend.Language = "ru"
	cfg.Timeouts.Load = time.Second
	cfg.Attachments = config.AttachmentsConfig{MaxFiles: 3, MaxSizeBytes: 5 << 20}
	return cfg
}

var page1Query = backend.ListQuery{Page: 1, Ordering: "-created_at", Language: "ru"}

type fixture struct {
	ctl  *Controller
	be   *mocks.MockBackend
	comp *composition.State
	m    *metrics.Metrics
}

// newControllerWithMocks — контроллер ветки threadID поверх MockBackend.
func newControllerWithMocks(t *testing.T, cfg config.Config) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	be := mocks.NewMockBackend(ctrl)
	comp := composition.New()
	m := metrics.New(nil)

	return fixture{
		ctl:  New(be, thread.New(threadID), comp, m, cfg),
		be:   be,
		comp: comp,
		m:    m,
	}
}

func comment(id, author string, replies ...models.Comment) models.Comment {
	return models.Comment{
		ID:             models.ID(id),
		AuthorID:       models.ID("u-" + author),
		AuthorUsername: author,
		Text:           "text of " + id,
		Replies:        replies,
	}
}

func png(name string, size int) attachments.File {
	return attachments.File{Name: name, Size: int64(size), MIMEType: "image/png", Data: make([]byte, size)}
}

func TestController_LoadPage_ReplaceThenAppend(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	gomock.InOrder(
		f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
			Return(&models.Page{Items: []models.Comment{comment("1", "anna")}, HasMore: true}, nil),
		f.be.EXPECT().ListComments(gomock.Any(), threadID, backend.ListQuery{Page: 2, Ordering: "-created_at", Language: "ru"}).
			Return(&models.Page{Items: []models.Comment{comment("2", "bob")}, HasMore: false}, nil),
	)

	require.NoError(t, f.ctl.LoadPage(ctx, 1))
	require.NoError(t, f.ctl.LoadNextPage(ctx))

	st := f.ctl.State()
	require.Equal(t, 2, st.Page)
	require.False(t, st.HasMore)
	require.False(t, st.Loading)
	require.Len(t, st.Roots, 2)
	require.Equal(t, float64(2), testutil.ToFloat64(f.m.LoadedRoots.WithLabelValues(threadID)))

	// Следующей страницы нет — сетевого вызова тоже.
	require.NoError(t, f.ctl.LoadNextPage(ctx))
}

func TestController_LoadPage_InvalidPage(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	err := f.ctl.LoadPage(context.Background(), 0)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, float64(1), testutil.ToFloat64(f.m.Operations.WithLabelValues(opLoadPage, metrics.OutcomeInvalid)))
}

// Ошибка загрузки не меняет уже загруженное состояние.
func TestController_LoadPage_FailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
		Return(&models.Page{Items: []models.Comment{comment("1", "anna")}, HasMore: true}, nil)
	require.NoError(t, f.ctl.LoadPage(ctx, 1))
	before := f.ctl.State()

	f.be.EXPECT().ListComments(gomock.Any(), threadID, gomock.Any()).
		Return(nil, &backend.StatusError{Status: 503, Kind: backend.ErrUnavailable})

	err := f.ctl.LoadPage(ctx, 2)
	require.ErrorIs(t, err, ErrLoadFailed)
	require.ErrorIs(t, err, backend.ErrUnavailable)
	require.Equal(t, before, f.ctl.State())
}

// Страница не по порядку отклоняется до сетевого вызова, дерево не меняется.
func TestController_LoadPage_OutOfSequence(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
		Return(&models.Page{Items: []models.Comment{comment("1", "anna")}, HasMore: true}, nil).Times(1)

	require.NoError(t, f.ctl.LoadPage(ctx, 1))
	before := f.ctl.State()

	for _, n := range []int{3, 7} {
		err := f.ctl.LoadPage(ctx, n)
		require.ErrorIs(t, err, ErrLoadFailed, "page %d", n)
		require.ErrorIs(t, err, thread.ErrSequence, "page %d", n)
	}

	// Незагруженная ветка: продолжение без первой страницы тоже без запроса.
	fresh := newControllerWithMocks(t, testConfig())
	require.ErrorIs(t, fresh.ctl.LoadPage(ctx, 2), thread.ErrSequence)
	require.False(t, fresh.ctl.State().Loading)

	require.Equal(t, before, f.ctl.State())
	require.False(t, f.ctl.State().Loading)
}

// Вторая загрузка во время первой отбрасывается без сетевого вызова.
func TestController_LoadPage_ConcurrentCallDropped(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	started := make(chan struct{})
	release := make(chan struct{})

	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
		DoAndReturn(func(ctx context.Context, _ string, _ backend.ListQuery) (*models.Page, error) {
			close(started)
			<-release
			return &models.Page{Items: []models.Comment{comment("1", "anna")}}, nil
		}).Times(1)

	errCh := make(chan error, 1)
	go func() { errCh <- f.ctl.LoadPage(context.Background(), 1) }()

	<-started
	require.True(t, f.ctl.State().Loading)

	require.NoError(t, f.ctl.LoadPage(context.Background(), 1))
	require.NoError(t, f.ctl.LoadPage(context.Background(), 2))
	require.Equal(t, float64(2), testutil.ToFloat64(f.m.Operations.WithLabelValues(opLoadPage, metrics.OutcomeDropped)))

	close(release)
	require.NoError(t, <-errCh)
	require.False(t, f.ctl.State().Loading)
	require.Equal(t, 1, f.ctl.State().Page)
}

// Зависший запрос: по истечении timeouts.load флаг loading снимается.
func TestController_LoadPage_TimeoutResetsLoading(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Timeouts.Load = 30 * time.Millisecond
	f := newControllerWithMocks(t, cfg)

	release := make(chan struct{})
	defer close(release)

	// Бэкенд игнорирует контекст.
	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
		DoAndReturn(func(context.Context, string, backend.ListQuery) (*models.Page, error) {
			<-release
			return &models.Page{}, nil
		})

	err := f.ctl.LoadPage(context.Background(), 1)
	require.ErrorIs(t, err, ErrLoadFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	st := f.ctl.State()
	require.False(t, st.Loading)
	require.Equal(t, 0, st.Page)
	require.Equal(t, float64(1), testutil.ToFloat64(f.m.Operations.WithLabelValues(opLoadPage, metrics.OutcomeCanceled)))
}

func TestController_LoadPage_CallerCancel(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())

	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
		DoAndReturn(func(ctx context.Context, _ string, _ backend.ListQuery) (*models.Page, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		})

	err := f.ctl.LoadPage(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, f.ctl.State().Loading)
}

func TestController_LoadCount(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	_, known := f.ctl.LastCount()
	require.False(t, known)

	f.be.EXPECT().CountComments(gomock.Any(), threadID).Return(17, nil)
	n, err := f.ctl.LoadCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 17, n)

	f.be.EXPECT().CountComments(gomock.Any(), threadID).Return(0, backend.ErrUnavailable)
	_, err = f.ctl.LoadCount(ctx)
	require.ErrorIs(t, err, ErrLoadFailed)

	// Неудача не затирает последнее известное значение и не влияет на HasMore.
	last, known := f.ctl.LastCount()
	require.True(t, known)
	require.Equal(t, 17, last)
	require.False(t, f.ctl.State().HasMore)
}

// Короткий текст отклоняется до сети: у мока нет ожиданий, любой вызов — провал теста.
func TestController_SubmitComment_Validation(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	cases := map[string]SubmitInput{
		"two chars":         {Text: "ok", AuthorID: "1", AuthorUsername: "anna"},
		"padded two chars":  {Text: "   ok \n", AuthorID: "1", AuthorUsername: "anna"},
		"combining accents": {Text: "e\u0301e\u0301", AuthorID: "1", AuthorUsername: "anna"},
		"two emoji":         {Text: "\U0001F600\U0001F600", AuthorID: "1", AuthorUsername: "anna"},
		"empty author id":   {Text: "hello", AuthorUsername: "anna"},
		"blank username":    {Text: "hello", AuthorID: "1", AuthorUsername: "  "},
		"too many images": {Text: "hello", AuthorID: "1", AuthorUsername: "anna",
			Images: []attachments.File{png("a", 1), png("b", 1), png("c", 1), png("d", 1)}},
		"bmp image": {Text: "hello", AuthorID: "1", AuthorUsername: "anna",
			Images: []attachments.File{{Name: "x.bmp", Size: 10, MIMEType: "image/bmp"}}},
	}

	for name, in := range cases {
		_, err := f.ctl.SubmitComment(ctx, in)
		require.ErrorIs(t, err, ErrValidation, name)
	}

	_, err := f.ctl.SubmitComment(ctx, cases["too many images"])
	var rej *attachments.RejectedError
	require.True(t, errors.As(err, &rej))
	require.Equal(t, attachments.TooMany, rej.Reason)

	require.Equal(t, float64(len(cases)+1), testutil.ToFloat64(f.m.Operations.WithLabelValues(opSubmit, metrics.OutcomeInvalid)))
}

// Успех: ровно один POST, затем ровно одна загрузка страницы 1 и один счётчик;
// черновик ответа на родителя закрыт.
func TestController_SubmitComment_ReloadsOnce(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	f.comp.OpenReply(composition.Target{ThreadID: threadID, CommentID: "1"})

	created := comment("2", "bob")
	created.ParentID = "1"

	gomock.InOrder(
		f.be.EXPECT().CreateComment(gomock.Any(), threadID, models.NewComment{
			Text:           "hello there",
			AuthorID:       "u-bob",
			AuthorUsername: "bob",
			ParentID:       "1",
			Images: []models.Attachment{
				{Name: "a.png", MIMEType: "image/png", Data: make([]byte, 1024)},
				{Name: "b.png", MIMEType: "image/png", Data: make([]byte, 2048)},
			},
		}).Return(&created, nil).Times(1),
		f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
			Return(&models.Page{Items: []models.Comment{comment("1", "anna", created)}}, nil).Times(1),
		f.be.EXPECT().CountComments(gomock.Any(), threadID).Return(2, nil).Times(1),
	)

	out, err := f.ctl.SubmitComment(ctx, SubmitInput{
		Text:           "  hello there  ",
		AuthorID:       "u-bob",
		AuthorUsername: "bob",
		ParentID:       "1",
		Images:         []attachments.File{png("a.png", 1024), png("b.png", 2048)},
	})
	require.NoError(t, err)
	require.Equal(t, models.ID("2"), out.ID)

	kind, _ := f.comp.Current()
	require.Equal(t, composition.None, kind)

	st := f.ctl.State()
	require.Equal(t, 1, st.Page)
	require.Len(t, st.Roots, 1)
	require.Len(t, st.Roots[0].Replies, 1)

	n, known := f.ctl.LastCount()
	require.True(t, known)
	require.Equal(t, 2, n)
}

// NFC используется только для подсчёта длины: текст уходит как введён,
// без краевых пробелов.
func TestController_SubmitComment_KeepsTextAsTyped(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	f.be.EXPECT().CreateComment(gomock.Any(), threadID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, in models.NewComment) (*models.Comment, error) {
			require.Equal(t, "cafe\u0301", in.Text)
			return &models.Comment{ID: "9"}, nil
		})
	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).Return(&models.Page{}, nil)
	f.be.EXPECT().CountComments(gomock.Any(), threadID).Return(1, nil)

	_, err := f.ctl.SubmitComment(context.Background(), SubmitInput{Text: " cafe\u0301\n", AuthorID: "1", AuthorUsername: "anna"})
	require.NoError(t, err)
}

// Корневой комментарий не закрывает черновик другой ветки; ответ закрывает
// только черновик ответа на свой родительский комментарий.
func TestController_SubmitComment_ClosesOnlyOwnDraft(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	f.be.EXPECT().CreateComment(gomock.Any(), threadID, gomock.Any()).Return(&models.Comment{ID: "9"}, nil).Times(3)
	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).Return(&models.Page{}, nil).Times(3)
	f.be.EXPECT().CountComments(gomock.Any(), threadID).Return(1, nil).Times(3)

	foreign := composition.Target{ThreadID: "other-thread", CommentID: "42"}
	f.comp.OpenReply(foreign)

	_, err := f.ctl.SubmitComment(ctx, SubmitInput{Text: "root comment", AuthorID: "1", AuthorUsername: "anna"})
	require.NoError(t, err)

	got, ok := f.comp.ReplyTarget()
	require.True(t, ok)
	require.Equal(t, foreign, got)

	// Ответ на "42" в этой ветке: id совпадает, ветка другая.
	_, err = f.ctl.SubmitComment(ctx, SubmitInput{Text: "reply here", AuthorID: "1", AuthorUsername: "anna", ParentID: "42"})
	require.NoError(t, err)

	got, ok = f.comp.ReplyTarget()
	require.True(t, ok)
	require.Equal(t, foreign, got)

	own := composition.Target{ThreadID: threadID, CommentID: "42"}
	f.comp.OpenReply(own)

	_, err = f.ctl.SubmitComment(ctx, SubmitInput{Text: "reply here", AuthorID: "1", AuthorUsername: "anna", ParentID: "42"})
	require.NoError(t, err)

	kind, _ := f.comp.Current()
	require.Equal(t, composition.None, kind)
}

// Отказ бэкенда: без перезагрузки, композиция остаётся открытой.
func TestController_SubmitComment_BackendFailure(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	target := composition.Target{ThreadID: threadID, CommentID: "1"}
	f.comp.OpenReply(target)

	f.be.EXPECT().CreateComment(gomock.Any(), threadID, gomock.Any()).
		Return(nil, &backend.StatusError{Status: 400, Detail: "banned word", Kind: backend.ErrRejected})

	_, err := f.ctl.SubmitComment(context.Background(), SubmitInput{Text: "hello", AuthorID: "1", AuthorUsername: "anna", ParentID: "1"})
	require.ErrorIs(t, err, ErrSubmitFailed)
	require.ErrorIs(t, err, backend.ErrRejected)

	var se *backend.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "banned word", se.Detail)

	got, ok := f.comp.ReplyTarget()
	require.True(t, ok)
	require.Equal(t, target, got)
}

// Ошибка перезагрузки после успешной записи не делает запись неуспешной.
func TestController_SubmitComment_ReloadFailureIsLogged(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	f.be.EXPECT().CreateComment(gomock.Any(), threadID, gomock.Any()).Return(&models.Comment{ID: "5"}, nil)
	f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).Return(nil, backend.ErrUnavailable)
	f.be.EXPECT().CountComments(gomock.Any(), threadID).Return(0, backend.ErrUnavailable)

	out, err := f.ctl.SubmitComment(context.Background(), SubmitInput{Text: "hello", AuthorID: "1", AuthorUsername: "anna"})
	require.NoError(t, err)
	require.Equal(t, models.ID("5"), out.ID)
}

func TestController_DeleteComment(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	require.ErrorIs(t, f.ctl.DeleteComment(ctx, "", "u-1"), ErrValidation)
	require.ErrorIs(t, f.ctl.DeleteComment(ctx, "1", ""), ErrValidation)

	tomb := comment("1", "anna")
	tomb.IsDeleted = true

	gomock.InOrder(
		f.be.EXPECT().DeleteComment(gomock.Any(), threadID, models.ID("1"), models.ID("u-anna")).Return(nil),
		f.be.EXPECT().ListComments(gomock.Any(), threadID, page1Query).
			Return(&models.Page{Items: []models.Comment{tomb}}, nil),
		f.be.EXPECT().CountComments(gomock.Any(), threadID).Return(1, nil),
	)

	require.NoError(t, f.ctl.DeleteComment(ctx, "1", "u-anna"))
	require.True(t, f.ctl.State().Roots[0].IsDeleted)
}

func TestController_DeleteComment_Failures(t *testing.T) {
	t.Parallel()

	for _, kind := range []error{backend.ErrNotFound, backend.ErrForbidden, backend.ErrUnavailable} {
		f := newControllerWithMocks(t, testConfig())

		f.be.EXPECT().DeleteComment(gomock.Any(), threadID, models.ID("1"), models.ID("2")).
			Return(fmt.Errorf("backend/rest/DeleteComment: %w", kind))

		err := f.ctl.DeleteComment(context.Background(), "1", "2")
		require.ErrorIs(t, err, ErrDeleteFailed)
		require.ErrorIs(t, err, kind)
	}
}

func TestController_ReportComment(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	require.ErrorIs(t, f.ctl.ReportComment(ctx, "5", "7", "boring", ""), ErrValidation)
	require.ErrorIs(t, f.ctl.ReportComment(ctx, "", "7", models.ReasonSpam, ""), ErrValidation)

	// openReply(5) затем openReport(5): активна только жалоба.
	f.comp.OpenReply(composition.Target{ThreadID: threadID, CommentID: "5"})
	f.comp.OpenReport(composition.Target{ThreadID: threadID, CommentID: "5"})
	_, replyOpen := f.comp.ReplyTarget()
	require.False(t, replyOpen)

	f.be.EXPECT().ReportComment(gomock.Any(), threadID, models.ID("5"), models.Report{
		ReporterID: "7", Reason: models.ReasonOffensive, Description: "rude",
	}).Return(nil)

	// Жалоба не перезагружает ветку: ListComments/CountComments не ожидаются.
	require.NoError(t, f.ctl.ReportComment(ctx, "5", "7", models.ReasonOffensive, "  rude "))

	_, reportOpen := f.comp.ReportTarget()
	require.False(t, reportOpen)
}

// Жалоба закрывает только черновик жалобы на тот же комментарий этой ветки.
func TestController_ReportComment_KeepsForeignDraft(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())
	ctx := context.Background()

	f.be.EXPECT().ReportComment(gomock.Any(), threadID, models.ID("5"), gomock.Any()).Return(nil).Times(2)

	foreign := composition.Target{ThreadID: "other-thread", CommentID: "5"}
	f.comp.OpenReport(foreign)
	require.NoError(t, f.ctl.ReportComment(ctx, "5", "7", models.ReasonSpam, ""))

	got, ok := f.comp.ReportTarget()
	require.True(t, ok)
	require.Equal(t, foreign, got)

	reply := composition.Target{ThreadID: threadID, CommentID: "5"}
	f.comp.OpenReply(reply)
	require.NoError(t, f.ctl.ReportComment(ctx, "5", "7", models.ReasonSpam, ""))

	got, ok = f.comp.ReplyTarget()
	require.True(t, ok)
	require.Equal(t, reply, got)
}

func TestController_ReportComment_Failure(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	f.be.EXPECT().ReportComment(gomock.Any(), threadID, models.ID("5"), gomock.Any()).
		Return(backend.ErrRateLimited)

	err := f.ctl.ReportComment(context.Background(), "5", "7", models.ReasonSpam, "")
	require.ErrorIs(t, err, ErrReportFailed)
	require.ErrorIs(t, err, backend.ErrRateLimited)
}

func TestController_CanDelete(t *testing.T) {
	t.Parallel()

	f := newControllerWithMocks(t, testConfig())

	own := comment("1", "anna")
	require.True(t, f.ctl.CanDelete(own, "u-anna"))
	require.False(t, f.ctl.CanDelete(own, "u-bob"))
	require.False(t, f.ctl.CanDelete(own, ""))

	own.IsDeleted = true
	require.False(t, f.ctl.CanDelete(own, "u-anna"))
}

// fakeBackend — потокобезопасный бэкенд в памяти для параллельных сценариев.
type fakeBackend struct {
	mu     sync.Mutex
	roots  []models.Comment
	nextID int
	delay  time.Duration
}

func (b *fakeBackend) ListComments(ctx context.Context, _ string, _ backend.ListQuery) (*models.Page, error) {
	time.Sleep(b.delay)

	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]models.Comment, len(b.roots))
	copy(items, b.roots)
	return &models.Page{Items: items}, ctx.Err()
}

func (b *fakeBackend) CountComments(context.Context, string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.roots), nil
}

func (b *fakeBackend) CreateComment(_ context.Context, _ string, in models.NewComment) (*models.Comment, error) {
	time.Sleep(b.delay)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	c := models.Comment{ID: models.ID(fmt.Sprint(b.nextID)), AuthorID: in.AuthorID, AuthorUsername: in.AuthorUsername, Text: in.Text}
	b.roots = append(b.roots, c)
	return &c, nil
}

func (b *fakeBackend) DeleteComment(_ context.Context, _ string, commentID, _ models.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.roots {
		if b.roots[i].ID == commentID {
			b.roots[i].IsDeleted = true
			return nil
		}
	}

	return backend.ErrNotFound
}

func (b *fakeBackend) ReportComment(context.Context, string, models.ID, models.Report) error {
	return nil
}

// Параллельные мутации не конфликтуют друг с другом: без паник и гонок,
// итоговое состояние согласовано с последней завершившейся перезагрузкой.
func TestController_ConcurrentMutations(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{delay: time.Millisecond}
	ctl := New(fb, thread.New(threadID), composition.New(), metrics.New(nil), testConfig())
	ctx := context.Background()

	_, err := ctl.SubmitComment(ctx, SubmitInput{Text: "first", AuthorID: "1", AuthorUsername: "anna"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()
			_, err := ctl.SubmitComment(ctx, SubmitInput{Text: strings.Repeat("x", 3+i), AuthorID: "1", AuthorUsername: "anna"})
			assert.NoError(t, err)
		}(i)

		go func() {
			defer wg.Done()
			assert.NoError(t, ctl.DeleteComment(ctx, "1", "1"))
			_ = ctl.LoadNextPage(ctx)
		}()
	}
	wg.Wait()

	st := ctl.State()
	require.False(t, st.Loading)
	require.Equal(t, 1, st.Page)
	require.NotEmpty(t, st.Roots)

	seen := map[models.ID]bool{}
	for _, r := range st.Roots {
		require.False(t, seen[r.ID], "duplicate root %s", r.ID)
		seen[r.ID] = true
	}

	// Финальная перезагрузка видит всё, что записано.
	require.NoError(t, ctl.LoadPage(ctx, 1))
	require.Len(t, ctl.State().Roots, 9)
}
