package lookin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// RawOperand encodes a timing sequence as the operand for the raw IR
// command event: "<frequency>;<space separated timings>".
func RawOperand(sequence []int, frequencyHz int) string {
	if frequencyHz <= 0 {
		frequencyHz = 38000
	}
	parts := make([]string, 0, len(sequence))
	for _, sample := range sequence {
		parts = append(parts, strconv.Itoa(sample))
	}
	return fmt.Sprintf("%d;%s", frequencyHz, strings.Join(parts, " "))
}

// SendRaw transmits a raw timing sequence at the given carrier frequency
func (c *Client) SendRaw(ctx context.Context, sequence []int, frequencyHz int) error {
	return c.get(ctx, "commands/ir/raw/"+url.PathEscape(RawOperand(sequence, frequencyHz)), nil, nil)
}

// SendNEC1 transmits a NEC1 command on 38 kHz
func (c *Client) SendNEC1(ctx context.Context, signal string) error {
	return c.get(ctx, "commands/ir/nec1/"+url.PathEscape(signal), nil, nil)
}

// SendNECx transmits a NECx command on 38 kHz
func (c *Client) SendNECx(ctx context.Context, signal string) error {
	return c.get(ctx, "commands/ir/necx/"+url.PathEscape(signal), nil, nil)
}

// SendProntoHEX transmits a command in ProntoHEX format
func (c *Client) SendProntoHEX(ctx context.Context, signal string) error {
	return c.get(ctx, "commands/ir/prontohex/"+url.PathEscape(signal), nil, nil)
}

// SendSaved transmits a command stored in the hub's memory by storage ID
func (c *Client) SendSaved(ctx context.Context, signalID string) error {
	return c.get(ctx, "commands/ir/saved/"+url.PathEscape(signalID), nil, nil)
}

// SendLocalRemote triggers a function of a saved remote. The operand packs
// remote UUID, function code and signal index the way the hub expects.
func (c *Client) SendLocalRemote(ctx context.Context, uuid string, functionCode, signalID int) error {
	operand := fmt.Sprintf("%s%02X%02X", uuid, functionCode, signalID)
	return c.get(ctx, "commands/ir/localremote/"+url.PathEscape(operand), nil, nil)
}

// SendACStatus transmits an air conditioner status word. The operand is the
// remote's codeset (Extra) followed by the 16-bit status in XXXXMTFS form.
func (c *Client) SendACStatus(ctx context.Context, codeset string, status uint16) error {
	operand := fmt.Sprintf("%s%04X", codeset, status)
	return c.get(ctx, "commands/ir/ac/"+url.PathEscape(operand), nil, nil)
}
