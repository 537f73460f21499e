package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/zerr"
)

func newTask(name string, deps ...string) *domain.Task {
	return &domain.Task{
		Name:         domain.NewInternedString(name),
		Dependencies: domain.NewInternedStrings(deps),
	}
}

func TestGraph_AddTask_Duplicate(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("styles")))

	err := g.AddTask(newTask("styles"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateTask)
	assert.True(t, domain.IsConfigurationError(err))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "styles", zErr.Metadata()["task_name"])
}

func TestGraph_AddTask_InvalidName(t *testing.T) {
	g := domain.NewGraph()
	for _, name := range []string{"", "  ", "two words"} {
		err := g.AddTask(newTask(name))
		assert.ErrorIs(t, err, domain.ErrInvalidTaskName, "name %q", name)
	}
	assert.Equal(t, 0, g.TaskCount())
}

func TestGraph_AddTask_OutputConflict(t *testing.T) {
	g := domain.NewGraph()
	first := newTask("styles")
	first.Outputs = domain.NewInternedStrings([]string{"css/main.css"})
	require.NoError(t, g.AddTask(first))

	second := newTask("styles:copy")
	second.Outputs = domain.NewInternedStrings([]string{"./css//main.css"})
	err := g.AddTask(second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOutputConflict)
	assert.True(t, domain.IsConfigurationError(err))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "styles", zErr.Metadata()["owner"])
	assert.Equal(t, "css/main.css", zErr.Metadata()["output"])

	// The rejected task must not have been registered.
	assert.False(t, g.HasTask("styles:copy"))
	owner, ok := g.OutputOwner("css/main.css")
	require.True(t, ok)
	assert.Equal(t, "styles", owner.String())
}

func TestGraph_AddTask_GlobOutputConflict(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
	}{
		{"glob registered first", "css/*.css", "css/vendor.css"},
		{"literal registered first", "css/vendor.css", "css/*.css"},
		{"same glob", "img/*", "./img/*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewGraph()
			first := newTask("styles")
			first.Outputs = domain.NewInternedStrings([]string{tt.first})
			require.NoError(t, g.AddTask(first))

			second := newTask("styles:vendor")
			second.Outputs = domain.NewInternedStrings([]string{tt.second})
			err := g.AddTask(second)
			require.ErrorIs(t, err, domain.ErrOutputConflict)
			assert.True(t, domain.IsConfigurationError(err))
			assert.False(t, g.HasTask("styles:vendor"))

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, "styles", zErr.Metadata()["owner"])
		})
	}
}

func TestGraph_AddTask_DisjointGlobOutputs(t *testing.T) {
	g := domain.NewGraph()
	images := newTask("images")
	images.Outputs = domain.NewInternedStrings([]string{"img/*"})
	svg := newTask("svg")
	svg.Outputs = domain.NewInternedStrings([]string{"img/icons/*.svg"})
	sprite := newTask("sprite")
	sprite.Outputs = domain.NewInternedStrings([]string{"img/sprites/sprite.svg", "css/sprite.css"})
	styles := newTask("styles")
	styles.Outputs = domain.NewInternedStrings([]string{"css/main.css"})

	require.NoError(t, g.AddTask(images))
	require.NoError(t, g.AddTask(svg))
	require.NoError(t, g.AddTask(sprite))
	require.NoError(t, g.AddTask(styles))
}

func TestGraph_AddTask_DistinctOutputs(t *testing.T) {
	g := domain.NewGraph()
	a := newTask("js")
	a.Outputs = domain.NewInternedStrings([]string{"js/script.js"})
	b := newTask("js:vendor")
	b.Outputs = domain.NewInternedStrings([]string{"js/vendor.js"})

	require.NoError(t, g.AddTask(a))
	require.NoError(t, g.AddTask(b))
	assert.Equal(t, 2, g.TaskCount())
}

func TestGraph_AddTask_SameOutputTwiceInOneTask(t *testing.T) {
	g := domain.NewGraph()
	task := newTask("index")
	task.Outputs = domain.NewInternedStrings([]string{"index.html", "index.html"})
	assert.ErrorIs(t, g.AddTask(task), domain.ErrOutputConflict)
}

func TestGraph_GetTask(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("js")))

	task, err := g.GetTask(domain.NewInternedString("js"))
	require.NoError(t, err)
	assert.Equal(t, "js", task.Name.String())

	_, err = g.GetTask(domain.NewInternedString("missing"))
	assert.ErrorIs(t, err, domain.ErrUnknownTask)
}

func TestGraph_Resolve_Order(t *testing.T) {
	// default -> build -> (styles, js) ; styles -> sprite
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("default", "build")))
	require.NoError(t, g.AddTask(newTask("build", "styles", "js")))
	require.NoError(t, g.AddTask(newTask("styles", "sprite")))
	require.NoError(t, g.AddTask(newTask("js")))
	require.NoError(t, g.AddTask(newTask("sprite")))
	require.NoError(t, g.AddTask(newTask("unrelated")))

	order, err := g.Resolve([]string{"default"})
	require.NoError(t, err)

	names := domain.Strings(order)
	assert.Len(t, names, 5)
	assert.NotContains(t, names, "unrelated")

	pos := make(map[string]int, len(names))
	for i, n := range names {
		pos[n] = i
	}
	assert.Less(t, pos["sprite"], pos["styles"])
	assert.Less(t, pos["styles"], pos["build"])
	assert.Less(t, pos["js"], pos["build"])
	assert.Less(t, pos["build"], pos["default"])
}

func TestGraph_Resolve_ForwardReference(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("openBrowser", "webServer")))
	require.NoError(t, g.AddTask(newTask("webServer")))

	order, err := g.Resolve([]string{"openBrowser"})
	require.NoError(t, err)
	assert.Equal(t, []string{"webServer", "openBrowser"}, domain.Strings(order))
	assert.Equal(t, []string{"openBrowser"}, domain.Strings(g.Dependents(domain.NewInternedString("webServer"))))
}

func TestGraph_Resolve_Cycle(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("A", "B")))
	require.NoError(t, g.AddTask(newTask("B", "C")))
	require.NoError(t, g.AddTask(newTask("C", "A")))

	_, err := g.Resolve([]string{"A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.True(t, domain.IsConfigurationError(err))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "A -> B -> C -> A", zErr.Metadata()["cycle"])
}

func TestGraph_Resolve_SelfCycle(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("A", "A")))

	err := g.Validate()
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestGraph_Resolve_UnknownDependency(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("build", "ghost")))

	_, err := g.Resolve([]string{"build"})
	require.ErrorIs(t, err, domain.ErrUnknownTask)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "ghost", zErr.Metadata()["task"])
	assert.Equal(t, "build", zErr.Metadata()["required_by"])
}

func TestGraph_Resolve_UnknownTarget(t *testing.T) {
	g := domain.NewGraph()
	_, err := g.Resolve([]string{"nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownTask)
}

func TestGraph_NamesAndWalk(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("zeta")))
	require.NoError(t, g.AddTask(newTask("alpha")))

	assert.Equal(t, []string{"alpha", "zeta"}, g.Names())

	var walked []string
	for task := range g.Walk() {
		walked = append(walked, task.Name.String())
	}
	assert.Equal(t, []string{"zeta", "alpha"}, walked)
}

func TestErrorTypes_MatchSentinelAndCause(t *testing.T) {
	cause := errors.New("unexpected token")

	transformErr := domain.NewTransformError("sass", "src/sass/main.scss", cause)
	assert.ErrorIs(t, transformErr, domain.ErrTransformFailed)
	assert.ErrorIs(t, transformErr, cause)
	assert.Contains(t, transformErr.Error(), "src/sass/main.scss")

	taskErr := &domain.TaskError{Task: "styles", Err: transformErr}
	assert.ErrorIs(t, taskErr, domain.ErrTaskExecutionFailed)
	assert.ErrorIs(t, taskErr, domain.ErrTransformFailed)
	assert.Contains(t, taskErr.Error(), "styles")

	ioErr := domain.NewIOError("read", "src/js/app.js", cause)
	assert.ErrorIs(t, ioErr, domain.ErrIO)
	assert.Equal(t, "read src/js/app.js: unexpected token", ioErr.Error())
	assert.False(t, domain.IsConfigurationError(ioErr))
}
