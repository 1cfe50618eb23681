// Package domain defines the core data structures of the Gangway deployment
// supervisor. It contains the primary domain models, such as Session, Capture,
// and Hook, as well as the repository interfaces that define the contracts for
// data persistence.
//
// This package serves as the central point for application-wide types and
// business rules, ensuring a clean separation between the supervisor's core
// logic and its implementation details, such as the database, CLI, or external
// services. By defining interfaces for repositories, the domain package
// remains independent of the data storage technology.
package domain
