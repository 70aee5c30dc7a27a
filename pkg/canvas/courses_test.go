package canvas

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dashboardCardsHTML = `<html><body>
<div class="ic-DashboardCard">
  <a class="ic-DashboardCard__link" href="/courses/102">
    <div class="ic-DashboardCard__header-title">CHEM200</div>
  </a>
</div>
<div class="ic-DashboardCard">
  <a class="ic-DashboardCard__link" href="/courses/101" aria-label="BIO101"></a>
</div>
<div class="ic-DashboardCard">
  <a class="ic-DashboardCard__link" href="/groups/7">
    <div class="ic-DashboardCard__header-title">Not a course</div>
  </a>
</div>
</body></html>`

const courseTableHTML = `<html><body>
<table class="course-list-table">
  <tr><td><a href="/courses/201">HIST150</a></td></tr>
  <tr><td><a href="/courses/202">MATH110</a></td></tr>
  <tr><td><a href="/courses/202">MATH110</a></td></tr>
  <tr><td><a href="/courses/202/users">People</a></td></tr>
</table>
</body></html>`

const sweepHTML = `<html><body>
<a href="/courses/301">PHYS210</a>
<a href="/courses/301">PHYS210</a>
<a href="/courses/302">Grades</a>
<a href="/courses/303/assignments">Week 3 homework</a>
<a href="/courses/304">ENGL101</a>
</body></html>`

func coursesServer(dashboard, listing string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, dashboard)
	})
	mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, listing)
	})
	return httptest.NewServer(mux)
}

func TestCoursesFromDashboardCards(t *testing.T) {
	server := coursesServer(dashboardCardsHTML, "<html></html>")
	defer server.Close()

	c := newTestClient(t, server.URL)
	courses, err := c.Courses(context.Background())
	require.NoError(t, err)

	require.Len(t, courses, 2)
	assert.Equal(t, "101", courses[0].ID)
	assert.Equal(t, "BIO101", courses[0].Name, "falls back to the aria-label")
	assert.Equal(t, "102", courses[1].ID)
	assert.Equal(t, "CHEM200", courses[1].Name)
	assert.Equal(t, server.URL+"/courses/101", courses[0].URL)
}

func TestCoursesFallsBackToCourseTable(t *testing.T) {
	server := coursesServer("<html><body>empty dashboard</body></html>", courseTableHTML)
	defer server.Close()

	c := newTestClient(t, server.URL)
	courses, err := c.Courses(context.Background())
	require.NoError(t, err)

	require.Len(t, courses, 2)
	assert.Equal(t, "HIST150", courses[0].Name)
	assert.Equal(t, "MATH110", courses[1].Name)
}

func TestCoursesFallsBackToLinkSweep(t *testing.T) {
	server := coursesServer("<html><body>empty dashboard</body></html>", sweepHTML)
	defer server.Close()

	c := newTestClient(t, server.URL)
	courses, err := c.Courses(context.Background())
	require.NoError(t, err)

	// 301 deduped, 302 dropped as a nav link, 303 not a course homepage
	require.Len(t, courses, 2)
	assert.Equal(t, "301", courses[0].ID)
	assert.Equal(t, "304", courses[1].ID)
}

func TestDedupeCoursesKeepsFirstAndSorts(t *testing.T) {
	out := dedupeCourses([]Course{
		{ID: "2", Name: "second"},
		{ID: "1", Name: "first"},
		{ID: "2", Name: "dup"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "second", out[1].Name)
}
