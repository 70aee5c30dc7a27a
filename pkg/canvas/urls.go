package canvas

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	courseIDPattern   = regexp.MustCompile(`/courses/(\d+)`)
	courseHomePattern = regexp.MustCompile(`/courses/\d+$`)
)

// LoginURL returns the native Canvas login form URL
func LoginURL(base *url.URL) string {
	return base.JoinPath("login", "canvas").String()
}

// CoursesURL returns the all-courses listing URL
func CoursesURL(base *url.URL) string {
	return base.JoinPath("courses").String()
}

// DashboardURL returns the dashboard URL
func DashboardURL(base *url.URL) string {
	return base.String()
}

// CourseURL returns the homepage URL for a course id
func CourseURL(base *url.URL, id string) string {
	return base.JoinPath("courses", id).String()
}

// ModulesURL returns the modules listing URL for a course homepage URL
func ModulesURL(courseURL string) string {
	return strings.TrimRight(courseURL, "/") + "/modules"
}

// FilesURL returns the files-section root URL for a course homepage URL
func FilesURL(courseURL string) string {
	return strings.TrimRight(courseURL, "/") + "/files"
}

// CourseIDFromURL extracts the numeric course id from any course-scoped URL.
// Returns an empty string if the URL is not course-scoped.
func CourseIDFromURL(raw string) string {
	m := courseIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsCourseHomeURL reports whether raw points at a course homepage
// (a /courses/<id> path with nothing after the id)
func IsCourseHomeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return courseHomePattern.MatchString(strings.TrimRight(u.Path, "/"))
}

// resolveRef resolves a possibly relative href against base
func resolveRef(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
