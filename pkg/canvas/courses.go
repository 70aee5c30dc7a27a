package canvas

import (
	"context"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Course is one enrolled course: numeric id, display name, homepage URL.
// Enumerated once per run and immutable afterwards.
type Course struct {
	ID   string
	Name string
	URL  string
}

// Navigation links that look like course links but are portal chrome
var navLinkNames = map[string]bool{
	"home": true, "announcements": true, "grades": true, "people": true,
	"files": true, "syllabus": true, "modules": true, "settings": true,
	"dashboard": true, "courses": true, "assignments": true, "discussions": true,
	"quizzes": true, "pages": true,
}

// Courses enumerates the user's courses. Three strategies are tried in
// order, matching how different Canvas themes expose enrollment: dashboard
// cards, the all-courses table, and finally a generic sweep of course links.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	doc, err := c.FetchPage(ctx, DashboardURL(c.base))
	if err != nil {
		return nil, err
	}
	if courses := c.coursesFromDashboard(doc); len(courses) > 0 {
		c.log.InfoWithFields("courses found on dashboard", map[string]interface{}{"count": len(courses)})
		return courses, nil
	}

	doc, err = c.FetchPage(ctx, CoursesURL(c.base))
	if err != nil {
		return nil, err
	}
	if courses := c.coursesFromTable(doc); len(courses) > 0 {
		c.log.InfoWithFields("courses found in course list", map[string]interface{}{"count": len(courses)})
		return courses, nil
	}

	courses := c.coursesFromAnchors(doc)
	c.log.InfoWithFields("courses found by link sweep", map[string]interface{}{"count": len(courses)})
	return courses, nil
}

// coursesFromDashboard reads dashboard cards
func (c *Client) coursesFromDashboard(doc *goquery.Document) []Course {
	var courses []Course
	doc.Find("div.ic-DashboardCard").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a.ic-DashboardCard__link").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		courseURL, err := resolveRef(c.base, href)
		if err != nil {
			return
		}
		id := CourseIDFromURL(courseURL)
		if id == "" {
			return
		}

		name := strings.TrimSpace(card.Find(".ic-DashboardCard__header-title").First().Text())
		if name == "" {
			name, _ = link.Attr("aria-label")
			name = strings.TrimSpace(name)
		}
		if name == "" {
			name = "Course " + id
		}

		courses = append(courses, Course{ID: id, Name: name, URL: CourseURL(c.base, id)})
	})
	return dedupeCourses(courses)
}

// coursesFromTable reads the all-courses enrollment table
func (c *Client) coursesFromTable(doc *goquery.Document) []Course {
	var courses []Course
	doc.Find("table.course-list-table a[href*='/courses/'], table#my_courses_table a[href*='/courses/']").
		Each(func(_ int, link *goquery.Selection) {
			if course, ok := c.courseFromAnchor(link); ok {
				courses = append(courses, course)
			}
		})
	return dedupeCourses(courses)
}

// coursesFromAnchors sweeps every course-shaped link on the page
func (c *Client) coursesFromAnchors(doc *goquery.Document) []Course {
	var courses []Course
	doc.Find("a[href*='/courses/']").Each(func(_ int, link *goquery.Selection) {
		if course, ok := c.courseFromAnchor(link); ok {
			courses = append(courses, course)
		}
	})
	return dedupeCourses(courses)
}

func (c *Client) courseFromAnchor(link *goquery.Selection) (Course, bool) {
	href, ok := link.Attr("href")
	if !ok {
		return Course{}, false
	}
	courseURL, err := resolveRef(c.base, href)
	if err != nil || !IsCourseHomeURL(courseURL) {
		return Course{}, false
	}
	id := CourseIDFromURL(courseURL)
	if id == "" {
		return Course{}, false
	}

	name := strings.TrimSpace(link.Text())
	if name == "" || navLinkNames[strings.ToLower(name)] {
		return Course{}, false
	}

	return Course{ID: id, Name: name, URL: CourseURL(c.base, id)}, true
}

// dedupeCourses removes duplicate ids, keeping first occurrence, and
// orders by id for a stable run order
func dedupeCourses(courses []Course) []Course {
	seen := make(map[string]bool, len(courses))
	out := courses[:0]
	for _, course := range courses {
		if seen[course.ID] {
			continue
		}
		seen[course.ID] = true
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
