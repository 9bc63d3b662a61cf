package meshbuild

import "errors"

var (
	// ErrPrecondition reports a call made with arguments the operation
	// cannot accept, such as a cuboid without exactly 8 corners.
	ErrPrecondition = errors.New("meshbuild: precondition violated")

	// ErrTriangulation reports a polygon for which no ear could be found,
	// meaning it is not simple or not clockwise.
	ErrTriangulation = errors.New("meshbuild: no suitable triangulation found")
)
