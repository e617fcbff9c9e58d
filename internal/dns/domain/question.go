package domain

// Question represents a DNS query section entry. Name keeps the case it
// was received with and has no trailing dot.
type Question struct {
	Name  string
	Type  RRType
	Class RRClass
}
