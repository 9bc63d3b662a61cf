// Package graph defines the design graph: a DAG of revolved, box and
// polygon parts placed by transforms and collected into groups. The
// engine produces a graph and the tessellator turns its parts into meshes.
package graph
