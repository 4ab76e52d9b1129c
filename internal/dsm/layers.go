package dsm

// TopologicalLayers assigns each task to a longest-path layer: sources sit
// in layer 0, every other task in 1 + max(layer of its predecessors). This
// guarantees no task shares a layer with, or precedes, any of its
// predecessors. Fails with CyclicGraphError on a cyclic graph.
func (g *Graph) TopologicalLayers() ([][]string, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	layer := make(map[string]int, len(order))
	deepest := 0
	for _, id := range order {
		l := 0
		for _, pred := range g.RevAdj[id] {
			if layer[pred]+1 > l {
				l = layer[pred] + 1
			}
		}
		layer[id] = l
		if l > deepest {
			deepest = l
		}
	}

	layers := make([][]string, deepest+1)
	for _, id := range g.Order {
		l := layer[id]
		layers[l] = append(layers[l], id)
	}
	return layers, nil
}
