// Package export renders the stored evolution graph into external
// formats: GraphML for graph tooling and Markdown for documentation.
//
// Two GraphML shapes are supported. The full graph is undirected and
// covers every stored entity; a line graph is directed and follows one
// entity's evolution line in both directions, constrained by stage
// ordering so sidegrades do not drag in the whole graph.
package export
