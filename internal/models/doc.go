// Package models contains the persistent entities of the library sync
// service and the candidate type exchanged between normalizers and the
// reconciler.
//
// Entities follow a uniform shape: unexported fields, a constructor, accessor
// methods and a Validate method, satisfying the [Model] interface consumed by
// the generic [Repository] contract.
package models
