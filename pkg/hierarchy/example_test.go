package hierarchy_test

import (
	"fmt"

	"github.com/matzehuels/proctree/pkg/graph"
	"github.com/matzehuels/proctree/pkg/hierarchy"
)

func ExampleReduce() {
	nodes := []graph.Node{{ID: "A"}, {ID: "B"}}
	edges := []graph.Edge{{From: "A", To: "B"}, {From: "B", To: "A"}}

	p, err := hierarchy.Reduce(nodes, edges, hierarchy.GuardTwoHop)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("roots:", p.Roots())
	fmt.Println("back edges:", p.Stats.BackEdges)
	// Output:
	// roots: [A B]
	// back edges: 2
}

func ExampleBuild() {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "init"}, {ID: "sshd"}, {ID: "cron"}, {ID: "bash"}},
		Edges: []graph.Edge{
			{From: "init", To: "sshd"},
			{From: "init", To: "cron"},
			{From: "sshd", To: "bash"},
			{From: "cron", To: "bash"},
		},
	}

	tree, _, err := hierarchy.Build(g, hierarchy.GuardTwoHop, hierarchy.RootPolicySingle)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	tree.Walk(func(n *hierarchy.Node) bool {
		fmt.Printf("%*s%s\n", 2*n.Depth, "", n.ID)
		return true
	})
	// Output:
	// init
	//   sshd
	//     bash
	//   cron
}
