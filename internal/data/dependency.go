package data

// DependencyKey uniquely identifies a piece of derived submission data.
type DependencyKey string
