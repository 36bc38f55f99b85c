package ga

import (
	"strconv"

	"github.com/relaymetrics/relay/pkg/track"
)

// ecommerceCategory is the vendor's default category for enhanced
// e-commerce action hits.
const ecommerceCategory = "EnhancedEcommerce"

// ProductClicked maps a product click as an event hit carrying one product
// block, sourced from the event properties themselves.
func (m *Mapper) ProductClicked(e *track.Event) Payload {
	return m.productAction(e, "click")
}

// ProductAdded maps an add-to-cart.
func (m *Mapper) ProductAdded(e *track.Event) Payload {
	return m.productAction(e, "add")
}

// ProductRemoved maps a remove-from-cart.
func (m *Mapper) ProductRemoved(e *track.Event) Payload {
	return m.productAction(e, "remove")
}

func (m *Mapper) productAction(e *track.Event, action string) Payload {
	p := m.commonForm(e)
	p["t"] = "event"
	p.set("ea", e.Event)
	p["ec"] = e.CategoryOr(ecommerceCategory)
	p["pa"] = action
	addProducts(p, []track.Fields{e.Properties})
	return p
}

// CheckoutStepViewed maps a checkout step impression as a non-interaction
// pageview carrying the full product list.
func (m *Mapper) CheckoutStepViewed(e *track.Event) Payload {
	p := m.commonForm(e)
	p.merge(m.pageFields(e))
	p["t"] = "pageview"
	p["pa"] = "checkout"
	p["ni"] = "1"
	setFrom(p, e.Properties, "step", "cos")
	setFrom(p, e.Properties, "option", "col")
	addProducts(p, e.Products())
	return p
}

// OrderStarted and OrderUpdated reuse the checkout-step-viewed mapping. The
// upstream behavior treats all three identically; keep the aliasing until
// product decides these need distinct hits.
func (m *Mapper) OrderStarted(e *track.Event) Payload { return m.CheckoutStepViewed(e) }

// OrderUpdated mirrors OrderStarted; see the note above.
func (m *Mapper) OrderUpdated(e *track.Event) Payload { return m.CheckoutStepViewed(e) }

// CheckoutStepCompleted maps a completed checkout option selection.
func (m *Mapper) CheckoutStepCompleted(e *track.Event) Payload {
	p := m.commonForm(e)
	p["t"] = "event"
	p.set("ea", e.Event)
	p["ec"] = e.CategoryOr(ecommerceCategory)
	p["pa"] = "checkout_option"
	setFrom(p, e.Properties, "step", "cos")
	setFrom(p, e.Properties, "option", "col")
	return p
}

// OrderCompleted fans one order out into a transaction hit followed by one
// item hit per product, in list order. Each payload is a complete standalone
// hit carrying the common form.
func (m *Mapper) OrderCompleted(e *track.Event) []Payload {
	orderID := e.OrderID()
	currency := e.Currency()

	tx := m.commonForm(e)
	tx["t"] = "transaction"
	tx.set("ti", orderID)
	setFrom(tx, e.Properties, "affiliation", "ta")
	if r, ok := e.Revenue(); ok {
		tx.setNum("tr", r)
	}
	if s, ok := e.Shipping(); ok {
		tx.setNum("ts", s)
	}
	if t, ok := e.Tax(); ok {
		tx.setNum("tt", t)
	}
	tx.set("cu", currency)

	payloads := []Payload{tx}
	for _, prod := range e.Products() {
		item := m.commonForm(e)
		item["t"] = "item"
		item.set("ti", orderID)
		item.set("cu", currency)
		setFrom(item, prod, "name", "in")
		setFrom(item, prod, "price", "ip")
		setFrom(item, prod, "quantity", "iq")
		setFrom(item, prod, "sku", "ic")
		setFrom(item, prod, "category", "iv")
		payloads = append(payloads, item)
	}
	return payloads
}

// OrderRefunded reverses a transaction. Only the order reference is carried;
// the vendor voids the whole transaction.
func (m *Mapper) OrderRefunded(e *track.Event) Payload {
	p := m.commonForm(e)
	p["t"] = "event"
	p.set("ea", e.Event)
	p["ec"] = e.CategoryOr(ecommerceCategory)
	p["pa"] = "refund"
	p["ni"] = "1"
	p.set("ti", e.OrderID())
	return p
}

// PromotionViewed maps a promotion impression as a pageview.
func (m *Mapper) PromotionViewed(e *track.Event) Payload {
	p := m.commonForm(e)
	p.merge(m.pageFields(e))
	p["t"] = "pageview"
	addPromotion(p, e)
	return p
}

// PromotionClicked maps a promotion click.
func (m *Mapper) PromotionClicked(e *track.Event) Payload {
	p := m.commonForm(e)
	p["t"] = "event"
	p.set("ea", e.Event)
	p["ec"] = e.CategoryOr(ecommerceCategory)
	p["el"] = label(e)
	p["promoa"] = "click"
	addPromotion(p, e)
	return p
}

func addPromotion(p Payload, e *track.Event) {
	setFrom(p, e.Properties, "creative", "promo1cr")
	setFrom(p, e.Properties, "id", "promo1id")
	setFrom(p, e.Properties, "name", "promo1nm")
	setFrom(p, e.Properties, "position", "promo1ps")
}

// addProducts writes one pr<N> block per product, 1-indexed in list order.
// Fields without a source value are left out of the payload entirely.
func addProducts(p Payload, products []track.Fields) {
	for i, prod := range products {
		prefix := "pr" + strconv.Itoa(i+1)
		setFrom(p, prod, "brand", prefix+"br")
		setFrom(p, prod, "category", prefix+"ca")
		p.set(prefix+"id", productID(prod))
		setFrom(p, prod, "name", prefix+"nm")
		setFrom(p, prod, "price", prefix+"pr")
		setFrom(p, prod, "quantity", prefix+"qty")
		setFrom(p, prod, "variant", prefix+"va")
	}
}

// productID accepts the product id under its common aliases.
func productID(prod track.Fields) string {
	for _, key := range []string{"productId", "product_id", "id", "sku"} {
		if v, ok := prod.Str(key); ok {
			return v
		}
	}
	return ""
}
