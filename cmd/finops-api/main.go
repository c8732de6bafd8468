// finops-api serves unified cost, trend, efficiency and savings views over
// the AWS, Azure and GCP gateways.
package main

func main() {
	Execute()
}
