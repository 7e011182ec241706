package controlplane

import (
	"context"
	"fmt"

	"github.com/gopcua/opcua/ua"

	"github.com/okuma-coupler/bridge/internal/interfaces"
)

// browseNodeClassMask selects variables and objects only (spec.md §4.2
// "forward hierarchical browse with variable+object node-class mask").
const browseNodeClassMask = uint32(ua.NodeClassVariable | ua.NodeClassObject)

// Browse performs a forward hierarchical browse of nodeID's children.
func (c *Client) Browse(ctx context.Context, nodeID string) ([]interfaces.BrowseResult, error) {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return nil, fmt.Errorf("controlplane: parsing node id %q: %w", nodeID, err)
	}

	req := &ua.BrowseRequest{
		NodesToBrowse: []*ua.BrowseDescription{{
			NodeID:          id,
			BrowseDirection: ua.BrowseDirectionForward,
			ReferenceTypeID: ua.NewNumericNodeID(0, uint32(ua.ReferenceTypeIDHierarchicalReferences)),
			IncludeSubtypes: true,
			NodeClassMask:   browseNodeClassMask,
			ResultMask:      uint32(ua.BrowseResultMaskAll),
		}},
	}

	resp, err := c.activeConn().Browse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("controlplane: browse %q: %w", nodeID, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	out := make([]interfaces.BrowseResult, 0, len(resp.Results[0].References))
	for _, ref := range resp.Results[0].References {
		out = append(out, interfaces.BrowseResult{
			NodeID:      ref.NodeID.NodeID.String(),
			DisplayName: ref.DisplayName.Text,
		})
	}
	return out, nil
}
