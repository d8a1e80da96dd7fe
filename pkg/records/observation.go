package records

// PersonKey identifies a person across batches.
type PersonKey struct {
	Name  string
	Email string
}

// String renders the key for logs.
func (k PersonKey) String() string {
	return k.Name + " <" + k.Email + ">"
}

// IsZero reports whether either identity field is blank.
func (k PersonKey) IsZero() bool {
	return k.Name == "" || k.Email == ""
}

// RawObservation is one extracted row: a single observed link for a person.
type RawObservation struct {
	Name       string
	Email      string
	Phone      string
	Zip1       string
	Address1   string
	Zip2       string
	Address2   string
	EventLabel string
	URL        string
	Remarks    string
	InputOrder int
}

// Key returns the identity of the observed person.
func (o RawObservation) Key() PersonKey {
	return PersonKey{Name: o.Name, Email: o.Email}
}

// PersonAggregate is the batch-local summary of everything observed for one person.
type PersonAggregate struct {
	Name     string
	Email    string
	Phone    string
	Zip1     string
	Address1 string
	Zip2     string
	Address2 string
	Remarks  string

	// Events holds every event label seen in the batch, first-seen order.
	Events LabelSet

	// Count is the number of distinct non-empty URLs.
	Count int

	// URLs lists the distinct non-empty URLs in first-seen order.
	URLs []string

	// InputOrder is the position of the earliest observation.
	InputOrder int
}

// Key returns the identity of the aggregated person.
func (p *PersonAggregate) Key() PersonKey {
	return PersonKey{Name: p.Name, Email: p.Email}
}
