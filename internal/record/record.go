package record

// Course is one subject followed by a student. It is owned by exactly one Student.
type Course struct {
	Name        string    `json:"name"`
	Coefficient float32   `json:"coefficient"`
	Grades      []float32 `json:"grades"`
	Average     float32   `json:"average"`
}

// NewCourse creates a course with no grades and a zero average.
func NewCourse(name string, coefficient float32) *Course {
	return &Course{Name: name, Coefficient: coefficient}
}

// AddGrade appends one grade and refreshes the course average.
func (c *Course) AddGrade(g float32) {
	c.Grades = append(c.Grades, g)
	c.Recompute()
}

// AddGrades appends all grades and refreshes the average once.
func (c *Course) AddGrades(gs ...float32) {
	c.Grades = append(c.Grades, gs...)
	c.Recompute()
}

// Recompute sets Average to the mean of Grades, or 0 when there are none.
func (c *Course) Recompute() {
	c.Average = mean(c.Grades)
}

func mean(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return float32(sum / float64(len(values)))
}

// Student is one member of a cohort.
type Student struct {
	ID             int32     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Age            int32     `json:"age"`
	Courses        []*Course `json:"courses"`
	GeneralAverage float32   `json:"general_average"`
}

func NewStudent(id int32, firstName, lastName string, age int32) *Student {
	return &Student{ID: id, FirstName: firstName, LastName: lastName, Age: age}
}

// Course returns the course with the exact given name, or nil.
func (s *Student) Course(name string) *Course {
	for _, c := range s.Courses {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Enroll returns the student's course with the given name, creating it with
// coefficient when the student does not follow it yet.
func (s *Student) Enroll(name string, coefficient float32) *Course {
	if c := s.Course(name); c != nil {
		return c
	}
	c := NewCourse(name, coefficient)
	s.Courses = append(s.Courses, c)
	return c
}

// AddGrade appends g to course and refreshes both derived averages.
// course must belong to s.
func (s *Student) AddGrade(course *Course, g float32) {
	course.AddGrade(g)
	s.Recompute()
}

// Recompute sets GeneralAverage to the coefficient-weighted mean of course
// averages. A student with no courses or a zero total coefficient gets 0.
func (s *Student) Recompute() {
	var total, weights float64
	for _, c := range s.Courses {
		total += float64(c.Average) * float64(c.Coefficient)
		weights += float64(c.Coefficient)
	}
	if weights <= 0 {
		s.GeneralAverage = 0
		return
	}
	s.GeneralAverage = float32(total / weights)
}

// Cohort owns every student of one run. Students is read-only for callers:
// extend it through Add so the id index stays in step. A cohort built as a
// literal needs Reindex before Lookup uses the index.
type Cohort struct {
	Students []*Student

	index map[int32]*Student
}

// NewCohort creates an empty cohort sized for capacity students.
func NewCohort(capacity int) *Cohort {
	if capacity < 0 {
		capacity = 0
	}
	return &Cohort{
		Students: make([]*Student, 0, capacity),
		index:    make(map[int32]*Student, capacity),
	}
}

// Add appends s. Ids are assumed unique; on a duplicate the first student
// keeps the id for lookups.
func (c *Cohort) Add(s *Student) {
	if c.index == nil {
		c.index = make(map[int32]*Student)
	}
	c.Students = append(c.Students, s)
	if _, ok := c.index[s.ID]; !ok {
		c.index[s.ID] = s
	}
}

// Lookup never writes, so concurrent readers are safe. Without an index it
// falls back to a scan.
func (c *Cohort) Lookup(id int32) (*Student, bool) {
	if c == nil {
		return nil, false
	}
	if c.index == nil {
		for _, s := range c.Students {
			if s.ID == id {
				return s, true
			}
		}
		return nil, false
	}
	s, ok := c.index[id]
	return s, ok
}

func (c *Cohort) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Students)
}

// Reindex rebuilds the id index from Students.
func (c *Cohort) Reindex() {
	c.index = make(map[int32]*Student, len(c.Students))
	for _, s := range c.Students {
		if _, ok := c.index[s.ID]; !ok {
			c.index[s.ID] = s
		}
	}
}
