// Package coursesites resolves publish-target identifiers to the course
// sites recordings publish into.
package coursesites
