package canvas

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBase(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("https://canvas.example.edu")
	require.NoError(t, err)
	return base
}

func TestURLBuilders(t *testing.T) {
	base := testBase(t)

	assert.Equal(t, "https://canvas.example.edu/login/canvas", LoginURL(base))
	assert.Equal(t, "https://canvas.example.edu/courses", CoursesURL(base))
	assert.Equal(t, "https://canvas.example.edu/courses/101", CourseURL(base, "101"))
	assert.Equal(t, "https://canvas.example.edu/courses/101/modules", ModulesURL("https://canvas.example.edu/courses/101"))
	assert.Equal(t, "https://canvas.example.edu/courses/101/files", FilesURL("https://canvas.example.edu/courses/101/"))
}

func TestCourseIDFromURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://canvas.example.edu/courses/101", "101"},
		{"https://canvas.example.edu/courses/101/modules", "101"},
		{"/courses/42/files/7/download", "42"},
		{"https://canvas.example.edu/calendar", ""},
		{"https://canvas.example.edu/courses/", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CourseIDFromURL(tc.raw), tc.raw)
	}
}

func TestIsCourseHomeURL(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"https://canvas.example.edu/courses/101", true},
		{"https://canvas.example.edu/courses/101/", true},
		{"https://canvas.example.edu/courses/101/modules", false},
		{"https://canvas.example.edu/courses/101/files/9", false},
		{"https://canvas.example.edu/courses", false},
		{"http://%zz/broken", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsCourseHomeURL(tc.raw), tc.raw)
	}
}

func TestResolveRef(t *testing.T) {
	base := testBase(t)

	resolved, err := resolveRef(base, "/courses/101/files/9")
	require.NoError(t, err)
	assert.Equal(t, "https://canvas.example.edu/courses/101/files/9", resolved)

	resolved, err = resolveRef(base, "https://cdn.example.com/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.pdf", resolved)

	_, err = resolveRef(base, "http://%zz/broken")
	assert.Error(t, err)
}
