package responses

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnamSon/gformfiller/pkg/browser"
	"github.com/EnamSon/gformfiller/pkg/browser/browsertest"
	"github.com/EnamSon/gformfiller/pkg/locators"
)

func identify(t *testing.T, deps Deps, q *browsertest.Element) Handler {
	t.Helper()
	h, err := Identify(deps, q)
	require.NoError(t, err)
	return h
}

func TestTextApply(t *testing.T) {
	q := question("Name")
	input := browsertest.NewElement("input")
	require.NoError(t, input.Type("old"))
	q.Add(locators.TextInput.XPath, input)

	h := identify(t, Deps{}, q)
	require.NoError(t, h.Apply(context.Background(), "John & Jane"))
	assert.Equal(t, "John & Jane", input.Value())
	assert.Nil(t, h.Options())
}

func TestDateApply(t *testing.T) {
	c := &captures{}
	q := question("Birth date")
	input := browsertest.NewElement("date")
	q.Add(locators.DateInput.XPath, input)
	h := identify(t, testDeps(nil, c), q)

	require.NoError(t, h.Apply(context.Background(), "1990-04-12"))
	assert.Equal(t, "1990-04-12", input.Value())

	for _, bad := range []string{"12/04/1990", "1990-4-12", "", "1990-04-12T00:00"} {
		err := h.Apply(context.Background(), bad)
		var invalid *InvalidAnswerError
		require.True(t, errors.As(err, &invalid), bad)
		assert.Equal(t, KindDate, invalid.Kind)
		assert.False(t, IsRetryable(err))
	}
	assert.Equal(t, "1990-04-12", input.Value())
	assert.Contains(t, c.all(), "FAIL_FILL_DATE")
}

func TestTimeApply(t *testing.T) {
	tests := []struct {
		answer    string
		hour, min string
		wantErr   bool
	}{
		{"14:30", "14", "30", false},
		{"7:5", "07", "05", false},
		{"00:00", "00", "00", false},
		{"23:59", "23", "59", false},
		{"24:00", "", "", true},
		{"12:60", "", "", true},
		{"12", "", "", true},
		{"1:2:3", "", "", true},
		{"ab:cd", "", "", true},
		{"-1:10", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			q := question("Arrival")
			hour, minute := browsertest.NewElement("hour"), browsertest.NewElement("minute")
			q.Add(locators.TimeHour.XPath, hour)
			q.Add(locators.TimeMinute.XPath, minute)
			h := identify(t, Deps{}, q)

			err := h.Apply(context.Background(), tt.answer)
			if tt.wantErr {
				var invalid *InvalidAnswerError
				assert.True(t, errors.As(err, &invalid))
				assert.Empty(t, hour.Value())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour.Value())
			assert.Equal(t, tt.min, minute.Value())
		})
	}
}

func checkboxQuestion(states map[string]bool, order ...string) (*browsertest.Element, map[string]*browsertest.Element) {
	q := question("Languages")
	boxes := make(map[string]*browsertest.Element)
	for _, label := range order {
		box := browsertest.Checkbox(label, states[label])
		boxes[label] = box
		q.Add(locators.Checkbox.XPath, box)
	}
	return q, boxes
}

func TestCheckboxApply(t *testing.T) {
	q, boxes := checkboxQuestion(map[string]bool{"Java": true}, "Python", "Go", "Java")
	h := identify(t, Deps{}, q)
	assert.Equal(t, []string{"Python", "Go", "Java"}, h.Options())

	require.NoError(t, h.Apply(context.Background(), "python | go"))
	assert.True(t, boxes["Python"].Selected())
	assert.True(t, boxes["Go"].Selected())
	assert.False(t, boxes["Java"].Selected(), "non matching checked option is unchecked")
	assert.Equal(t, 1, boxes["Python"].Clicks())
	assert.Equal(t, 1, boxes["Java"].Clicks())
}

func TestCheckboxApplyIsIdempotent(t *testing.T) {
	q, boxes := checkboxQuestion(nil, "Python", "Go", "Java")
	h := identify(t, Deps{}, q)

	require.NoError(t, h.Apply(context.Background(), "python | java"))
	clicks := map[string]int{}
	for label, box := range boxes {
		clicks[label] = box.Clicks()
	}

	require.NoError(t, h.Apply(context.Background(), "python | java"))
	for label, box := range boxes {
		assert.Equal(t, clicks[label], box.Clicks(), label)
	}
}

func TestCheckboxNothingMatchesStillSucceeds(t *testing.T) {
	q, boxes := checkboxQuestion(nil, "A", "B")
	h := identify(t, Deps{}, q)
	require.NoError(t, h.Apply(context.Background(), "zzz"))
	assert.Zero(t, boxes["A"].Clicks())
}

func TestCheckboxSyntaxError(t *testing.T) {
	c := &captures{}
	q, boxes := checkboxQuestion(map[string]bool{"A": true}, "A", "B")
	h := identify(t, testDeps(nil, c), q)

	err := h.Apply(context.Background(), "a &")
	var invalid *InvalidAnswerError
	require.True(t, errors.As(err, &invalid))
	assert.Zero(t, boxes["A"].Clicks(), "state untouched")
	assert.Equal(t, []string{"FAIL_FILL_CHECKBOX"}, c.all())
}

func TestRadioApply(t *testing.T) {
	t.Run("clicks first match only", func(t *testing.T) {
		q := question("Level")
		a, b, c := browsertest.Radio("Beginner", false), browsertest.Radio("Advanced beginner", false), browsertest.Radio("Expert", false)
		q.Add(locators.Radio.XPath, a, b, c)
		h := identify(t, Deps{}, q)

		require.NoError(t, h.Apply(context.Background(), "beginner"))
		assert.Equal(t, 1, a.Clicks())
		assert.Zero(t, b.Clicks())
		assert.Zero(t, c.Clicks())
	})
	t.Run("already selected first match stops", func(t *testing.T) {
		q := question("Level")
		a, b := browsertest.Radio("Beginner", true), browsertest.Radio("Advanced beginner", false)
		q.Add(locators.Radio.XPath, a, b)
		h := identify(t, Deps{}, q)

		require.NoError(t, h.Apply(context.Background(), "beginner"))
		assert.Zero(t, a.Clicks())
		assert.Zero(t, b.Clicks())
	})
	t.Run("no match fails with screenshot", func(t *testing.T) {
		caps := &captures{}
		q := question("Level")
		q.Add(locators.Radio.XPath, browsertest.Radio("Yes", false), browsertest.Radio("No", false))
		h := identify(t, testDeps(nil, caps), q)

		err := h.Apply(context.Background(), "maybe")
		assert.ErrorIs(t, err, ErrNoMatchingOption)
		assert.True(t, IsRetryable(err))
		assert.Equal(t, []string{"FAIL_FILL_RADIO"}, caps.all())
	})
	t.Run("click error", func(t *testing.T) {
		q := question("Level")
		opt := browsertest.Radio("Yes", false)
		opt.ClickErr = errors.New("detached")
		q.Add(locators.Radio.XPath, opt)
		h := identify(t, Deps{}, q)
		assert.Error(t, h.Apply(context.Background(), "yes"))
	})
}

func TestListboxApply(t *testing.T) {
	q := question("Country")
	control := browsertest.NewElement("listbox")
	q.Add(locators.Listbox.XPath, control)
	fr := browsertest.NewElement("opt").WithText(" France ")
	cm := browsertest.NewElement("opt").WithText("Cameroon")
	control.OnClick = func(*browsertest.Element) {
		q.Add(locators.ListboxOption.XPath, fr, cm)
	}
	h := identify(t, testDeps(nil, &captures{}), q)

	require.NoError(t, h.Apply(context.Background(), "cameroon | congo"))
	assert.Equal(t, 1, control.Clicks())
	assert.Equal(t, 1, cm.Clicks())
	assert.Equal(t, 1, cm.Hovers())
	assert.Zero(t, fr.Clicks())
	assert.Equal(t, []string{"France", "Cameroon"}, h.Options())
}

func TestListboxFailures(t *testing.T) {
	t.Run("options never render", func(t *testing.T) {
		caps := &captures{}
		q := question("Country")
		q.Add(locators.Listbox.XPath, browsertest.NewElement("listbox"))
		h := identify(t, testDeps(nil, caps), q)

		err := h.Apply(context.Background(), "france")
		var nf *ElementNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.ErrorIs(t, err, browser.ErrElementNotFound)
		assert.Equal(t, []string{"FAIL_FILL_LISTBOX"}, caps.all())
	})
	t.Run("no option matches", func(t *testing.T) {
		q := question("Country")
		q.Add(locators.Listbox.XPath, browsertest.NewElement("listbox"))
		q.Add(locators.ListboxOption.XPath, browsertest.NewElement("o").WithText("France"))
		h := identify(t, testDeps(nil, &captures{}), q)
		assert.ErrorIs(t, h.Apply(context.Background(), "spain"), ErrNoMatchingOption)
	})
}

// uploadFixture wires a page whose picker appears when the add-file button
// is clicked and whose file list fills once a file is set.
type uploadFixture struct {
	session *browsertest.Session
	page    *browsertest.Element
	q       *browsertest.Element
	list    *browsertest.Element
	button  *browsertest.Element
	input   *browsertest.Element
}

func newUploadFixture(completes bool) *uploadFixture {
	f := &uploadFixture{
		page:   browsertest.NewElement("page"),
		q:      question("CV"),
		list:   browsertest.NewElement("files"),
		button: browsertest.NewElement("add file"),
		input:  browsertest.NewElement("file input"),
	}
	f.session = browsertest.NewSession(f.page)
	f.q.Add(locators.List.XPath, f.list)
	f.q.Add(locators.Button.XPath, f.button)

	picker := browsertest.NewElement("picker frame")
	pickerButton := browsertest.NewElement("browse")
	picker.Add(locators.Button.XPath, pickerButton)
	pickerButton.OnClick = func(*browsertest.Element) {
		picker.Add(locators.FileInput.XPath, f.input)
	}
	f.button.OnClick = func(*browsertest.Element) {
		f.page.Add(locators.Picker.XPath, picker)
	}
	f.session.OnEvaluate = func(script string) {
		if script == locators.RemoveFramesScript {
			f.page.Remove(locators.Picker.XPath)
		}
	}
	if completes {
		f.input.OnFiles = func([]string) {
			f.list.Add(locators.Any.XPath, browsertest.NewElement("uploaded"))
		}
	}
	return f
}

func TestFileUploadApply(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cv.pdf")
	require.NoError(t, os.WriteFile(file, []byte("pdf"), 0644))

	f := newUploadFixture(true)
	h := identify(t, testDeps(f.session, &captures{}), f.q)
	require.Equal(t, KindFileUpload, h.Kind())

	require.NoError(t, h.Apply(context.Background(), "  "+file+"  "))
	assert.Equal(t, []string{file}, f.input.Files())
	assert.False(t, f.session.InFrame())
	assert.Contains(t, f.session.Scripts(), locators.RemoveFramesScript)

	// Second apply sees the attached file and does nothing.
	require.NoError(t, h.Apply(context.Background(), file))
	assert.Equal(t, 1, f.button.Clicks())
}

func TestFileUploadRelativePathIsMadeAbsolute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id.png"), []byte("x"), 0644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	f := newUploadFixture(true)
	h := identify(t, testDeps(f.session, &captures{}), f.q)
	require.NoError(t, h.Apply(context.Background(), "id.png"))

	files := f.input.Files()
	require.Len(t, files, 1)
	assert.True(t, filepath.IsAbs(files[0]))
}

func TestFileUploadFailures(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cv.pdf")
	require.NoError(t, os.WriteFile(file, []byte("pdf"), 0644))

	t.Run("missing file", func(t *testing.T) {
		f := newUploadFixture(true)
		h := identify(t, testDeps(f.session, &captures{}), f.q)
		err := h.Apply(context.Background(), filepath.Join(dir, "nope.pdf"))
		var invalid *InvalidAnswerError
		assert.True(t, errors.As(err, &invalid))
		assert.Zero(t, f.button.Clicks())
	})
	t.Run("picker never appears", func(t *testing.T) {
		caps := &captures{}
		f := newUploadFixture(true)
		f.button.OnClick = nil
		h := identify(t, testDeps(f.session, caps), f.q)

		err := h.Apply(context.Background(), file)
		var nf *ElementNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "file picker frame", nf.What)
		assert.Equal(t, []string{"FAIL_FILL_FILE_UPLOAD"}, caps.all())
	})
	t.Run("upload never completes", func(t *testing.T) {
		f := newUploadFixture(false)
		h := identify(t, testDeps(f.session, &captures{}), f.q)

		err := h.Apply(context.Background(), file)
		var nf *ElementNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "upload completion", nf.What)
		assert.False(t, f.session.InFrame(), "context restored after failure")
	})
}
