package gateway

import "testing"

func TestPaymentSignatureKnownVector(t *testing.T) {
	const want = "ee21698235c31aef5bb049b86d1c00014db7de75dbe78cb4ed9ffa8e90855655"

	got := PaymentSignature("s3cr3t", "order_abc", "pay_xyz")
	if got != want {
		t.Fatalf("expected signature %s, got %s", want, got)
	}
	if !VerifySignature(want, got) {
		t.Fatal("expected exact signature to verify")
	}
}

func TestVerifySignatureRejectsAnyMutation(t *testing.T) {
	expected := PaymentSignature("s3cr3t", "order_abc", "pay_xyz")

	for i := 0; i < len(expected); i++ {
		mutated := []byte(expected)
		if mutated[i] == 'f' {
			mutated[i] = '0'
		} else {
			mutated[i] = 'f'
		}
		if VerifySignature(expected, string(mutated)) {
			t.Fatalf("expected mutation at position %d to be rejected", i)
		}
	}

	if VerifySignature(expected, expected[:len(expected)-1]) {
		t.Fatal("expected truncated signature to be rejected")
	}
	if VerifySignature(expected, "") {
		t.Fatal("expected empty signature to be rejected")
	}
}

func TestPaymentSignatureDependsOnAllInputs(t *testing.T) {
	base := PaymentSignature("s3cr3t", "order_abc", "pay_xyz")

	if PaymentSignature("other", "order_abc", "pay_xyz") == base {
		t.Fatal("expected different secret to change signature")
	}
	if PaymentSignature("s3cr3t", "order_abd", "pay_xyz") == base {
		t.Fatal("expected different order id to change signature")
	}
	if PaymentSignature("s3cr3t", "order_abc", "pay_xyw") == base {
		t.Fatal("expected different payment id to change signature")
	}
}

func TestWebhookSignatureKnownVector(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_live1","order_id":"order_live1"}}}}`)
	const want = "51344193bf118a4baf1bf15fec40d9f1b6e3d7b9d213243da415d4ad5a11e3d3"

	if got := WebhookSignature("whs3cr3t", body); got != want {
		t.Fatalf("expected webhook signature %s, got %s", want, got)
	}

	altered := append([]byte{}, body...)
	altered[0] = ' '
	if WebhookSignature("whs3cr3t", altered) == want {
		t.Fatal("expected altered body to change signature")
	}
}
